// Package source fetches raw content from configured origins and normalizes
// it into canonical items. Each source type has its own backend; all of them
// produce the same Item shape with the same fallback rules for missing
// fields.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"digesttracker/internal/model"
)

// Fetcher pulls items from one source. since bounds the lookback: items
// dated before it are dropped, items with no resolvable date are kept. A
// zero since disables the filter.
type Fetcher interface {
	Fetch(ctx context.Context, src model.Source, since time.Time) ([]model.Item, error)
}

// Registry maps a source type tag to its fetch backend. Adding a source
// type means one implementation plus one Register call.
type Registry struct {
	backends map[string]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{backends: map[string]Fetcher{}}
}

func (r *Registry) Register(sourceType string, fetcher Fetcher) {
	r.backends[sourceType] = fetcher
}

func (r *Registry) Lookup(sourceType string) (Fetcher, error) {
	fetcher, ok := r.backends[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %q", sourceType)
	}
	return fetcher, nil
}

// parseLooseDate parses human-readable date strings in whatever layout they
// arrive in. Unparseable input yields nil, never a guessed date.
func parseLooseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// cleanText strips per-line whitespace and drops blank lines.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
