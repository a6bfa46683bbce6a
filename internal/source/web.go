package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"digesttracker/internal/model"
)

// Page bodies larger than this are truncated before parsing.
const maxPageBytes = 10 << 20

type WebFetcher struct {
	client *http.Client
}

func NewWebFetcher(client *http.Client) *WebFetcher {
	return &WebFetcher{client: client}
}

// Fetch retrieves the page at the source URL and normalizes it into a
// single item. A page whose resolved date falls before since yields no
// items; a page with no resolvable date is kept.
func (f *WebFetcher) Fetch(ctx context.Context, src model.Source, since time.Time) ([]model.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src.URL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page %s: unexpected status %s", src.URL, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", src.URL, err)
	}

	page := parsePage(raw, src.URL)

	item := model.Item{
		URL:         src.URL,
		Title:       page.title,
		Content:     page.content,
		Summary:     page.description,
		Author:      page.author,
		PublishedAt: page.publishedAt,
		Metadata: model.Metadata{
			"source":     page.origin(src.URL),
			"source_url": src.URL,
		},
	}
	if page.description != "" {
		item.Metadata["description"] = page.description
	}

	if !since.IsZero() && item.PublishedAt != nil && item.PublishedAt.Before(since) {
		return nil, nil
	}
	return []model.Item{item}, nil
}

// pageMeta is what a page yields after the extraction tiers ran.
type pageMeta struct {
	title       string
	author      string
	description string
	siteName    string
	content     string
	publishedAt *time.Time
}

// origin is the grouping label for articles from this page: the declared
// site name when present, the URL host otherwise.
func (p pageMeta) origin(pageURL string) string {
	if p.siteName != "" {
		return p.siteName
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Host
	}
	return ""
}

// parsePage runs the metadata tiers over the page: explicit meta tags
// first, JSON-LD blocks second, the title tag last. Each field keeps the
// first tier that produced it, independently of the other fields. The body
// text comes from readability extraction on the same bytes.
func parsePage(raw []byte, pageURL string) pageMeta {
	var page pageMeta

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err == nil {
		doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
			name, ok := sel.Attr("name")
			if !ok || name == "" {
				name, _ = sel.Attr("property")
			}
			content, _ := sel.Attr("content")
			if content == "" {
				return
			}
			switch name {
			case "og:title":
				if page.title == "" {
					page.title = content
				}
			case "author", "article:author":
				if page.author == "" {
					page.author = content
				}
			case "published_time", "article:published_time", "date":
				if page.publishedAt == nil {
					page.publishedAt = parseLooseDate(content)
				}
			case "description", "og:description":
				if page.description == "" {
					page.description = content
				}
			case "og:site_name":
				if page.siteName == "" {
					page.siteName = content
				}
			}
		})

		doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
			fillFromLinkedData(&page, sel.Text())
		})

		if page.title == "" {
			page.title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}

	if u, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(bytes.NewReader(raw), u); err == nil {
			page.content = cleanText(article.TextContent)
		}
	}

	return page
}

// fillFromLinkedData reads one JSON-LD block and fills whatever fields are
// still missing. Malformed blocks are skipped.
func fillFromLinkedData(page *pageMeta, blob string) {
	var data map[string]any
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return
	}
	if page.title == "" {
		if headline, ok := data["headline"].(string); ok {
			page.title = headline
		}
	}
	if page.author == "" {
		page.author = linkedDataAuthor(data["author"])
	}
	if page.publishedAt == nil {
		if raw, ok := data["datePublished"].(string); ok {
			page.publishedAt = parseLooseDate(raw)
		}
	}
}

// linkedDataAuthor digs an author name out of the JSON-LD author property,
// which arrives as a plain string, an object with a name, or a list of
// either.
func linkedDataAuthor(v any) string {
	switch author := v.(type) {
	case string:
		return author
	case map[string]any:
		if name, ok := author["name"].(string); ok {
			return name
		}
	case []any:
		if len(author) > 0 {
			return linkedDataAuthor(author[0])
		}
	}
	return ""
}
