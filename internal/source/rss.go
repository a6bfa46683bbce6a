package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type RSSFetcher struct {
	client *http.Client
}

func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{client: client}
}

// Fetch parses the feed at the source URL and normalizes every entry.
func (f *RSSFetcher) Fetch(ctx context.Context, src model.Source, since time.Time) ([]model.Item, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client

	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	items := lo.Map(feed.Items, func(entry *gofeed.Item, _ int) model.Item {
		return model.Item{
			URL:         entry.Link,
			Title:       entry.Title,
			Content:     entryContent(entry),
			Summary:     entry.Description,
			Author:      entryAuthor(entry),
			PublishedAt: entryDate(entry),
			Metadata: model.Metadata{
				"source":     feed.Title,
				"source_url": src.URL,
				"tags":       entry.Categories,
			},
		}
	})

	if since.IsZero() {
		return items, nil
	}
	return lo.Filter(items, func(item model.Item, _ int) bool {
		return item.PublishedAt == nil || !item.PublishedAt.Before(since)
	}), nil
}

// entryDate resolves an entry's timestamp: structured published date first,
// then structured updated date, then a loose parse of whichever raw date
// string is present. Entries with nothing parseable stay undated.
func entryDate(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		t := entry.PublishedParsed.UTC()
		return &t
	}
	if entry.UpdatedParsed != nil {
		t := entry.UpdatedParsed.UTC()
		return &t
	}
	for _, raw := range []string{entry.Published, entry.Updated} {
		if t := parseLooseDate(raw); t != nil {
			return t
		}
	}
	return nil
}

// entryContent prefers the full content block, falling back to the entry
// description.
func entryContent(entry *gofeed.Item) string {
	if entry.Content != "" {
		return entry.Content
	}
	return entry.Description
}

func entryAuthor(entry *gofeed.Item) string {
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		return entry.Authors[0].Name
	}
	if entry.Author != nil {
		return entry.Author.Name
	}
	return ""
}
