package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by storage lookups when no active record matches.
var ErrNotFound = errors.New("not found")

// Source types understood by the fetch registry.
const (
	SourceTypeRSS = "rss"
	SourceTypeWeb = "web"
)

// Blog types understood by the publish registry.
const (
	BlogTypeLocal    = "local"
	BlogTypeTelegram = "telegram"
)

// Metadata is open key/value extension data carried on sources, blogs and
// articles. Expected keys are documented per type, not enforced; values are
// validated only at the point of use.
type Metadata map[string]any

// String returns the value under key when it is a non-empty string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Strings returns the value under key as a string list, tolerating both
// []string and the []any shape left behind by JSON decoding.
func (m Metadata) Strings(key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Bool returns the value under key when it is a bool, false otherwise.
func (m Metadata) Bool(key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

type Topic struct {
	ID          string
	Name        string
	Description string
	Active      bool
}

type Source struct {
	ID            string
	TopicID       string
	URL           string
	Type          string
	Config        Metadata
	LastFetchedAt *time.Time
	Metadata      Metadata
}

// Item is one normalized piece of content produced by a fetch backend,
// before it is persisted as an Article. PublishedAt stays nil when no date
// field could be resolved; it is never defaulted to the fetch time.
type Item struct {
	URL         string
	Title       string
	Content     string
	Summary     string
	Author      string
	PublishedAt *time.Time
	Metadata    Metadata
}

// Article is a stored Item. Articles are deduplicated by URL: a second
// ingestion of a known URL is a no-op, never an update.
type Article struct {
	ID          string
	SourceID    string
	Title       string
	URL         string
	Content     string
	Summary     string
	Author      string
	PublishedAt *time.Time
	Metadata    Metadata
	FetchedAt   time.Time
}

// Origin is the grouping attribute used by digest summaries: the feed or
// site the article came from, with a literal Unknown bucket when absent.
func (a Article) Origin() string {
	if s := a.Metadata.String("source"); s != "" {
		return s
	}
	return "Unknown"
}

type Blog struct {
	ID     string
	Name   string
	Type   string
	Config Metadata
	Active bool
}

// TopicBlog links a topic to its publish destination. The relationship is
// single-valued: at most one blog per topic.
type TopicBlog struct {
	TopicID    string
	BlogID     string
	Category   string
	SlugPrefix string
}

type Digest struct {
	ID           string
	TopicID      string
	Frequency    string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Content      string
	Summary      string
	ArticleCount int
	Published    bool
	BlogID       string
	PublishedURL string
	CreatedAt    time.Time
}

type Schedule struct {
	ID        string
	TopicID   string
	TopicName string
	Frequency string
	CronExpr  string
	Enabled   bool
}
