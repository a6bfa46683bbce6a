package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digesttracker/internal/model"
)

const fullPageHTML = `<!DOCTYPE html>
<html>
<head>
<title>Title Tag Fallback</title>
<meta property="og:title" content="Meta Title">
<meta name="author" content="Meta Author">
<meta property="article:published_time" content="2025-06-10T08:30:00Z">
<meta name="description" content="Meta description.">
<meta property="og:site_name" content="Example Site">
<script type="application/ld+json">
{"headline": "LD Title", "author": {"name": "LD Author"}, "datePublished": "2020-01-01T00:00:00Z"}
</script>
</head>
<body><article><p>Body paragraph with enough words to matter.</p></article></body>
</html>`

func TestParsePageMetaTagsWin(t *testing.T) {
	t.Parallel()

	page := parsePage([]byte(fullPageHTML), "https://example.com/post")

	assert.Equal(t, "Meta Title", page.title)
	assert.Equal(t, "Meta Author", page.author)
	assert.Equal(t, "Meta description.", page.description)
	assert.Equal(t, "Example Site", page.siteName)
	require.NotNil(t, page.publishedAt)
	assert.Equal(t, 2025, page.publishedAt.Year())
}

func TestParsePageLinkedDataFills(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<script type="application/ld+json">
{"headline": "LD Title", "author": {"name": "LD Author"}, "datePublished": "2020-01-01T00:00:00Z"}
</script>
</head><body></body></html>`

	page := parsePage([]byte(html), "https://example.com/post")

	assert.Equal(t, "LD Title", page.title)
	assert.Equal(t, "LD Author", page.author)
	require.NotNil(t, page.publishedAt)
	assert.Equal(t, 2020, page.publishedAt.Year())
}

func TestParsePageTitleTagFallback(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>  Plain Old Title  </title></head><body></body></html>`
	page := parsePage([]byte(html), "https://example.com/post")

	assert.Equal(t, "Plain Old Title", page.title)
	assert.Empty(t, page.author)
	assert.Nil(t, page.publishedAt)
}

func TestParsePageFieldsResolveIndependently(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<title>Title Tag</title>
<meta property="og:title" content="Meta Title">
<script type="application/ld+json">{"author": "LD Author", "datePublished": "2021-05-01"}</script>
</head><body></body></html>`

	page := parsePage([]byte(html), "https://example.com/post")

	assert.Equal(t, "Meta Title", page.title)
	assert.Equal(t, "LD Author", page.author)
	require.NotNil(t, page.publishedAt)
	assert.Equal(t, 2021, page.publishedAt.Year())
}

func TestParsePageMalformedLinkedDataSkipped(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<title>Still Works</title>
<script type="application/ld+json">{not json at all</script>
</head><body></body></html>`

	page := parsePage([]byte(html), "https://example.com/post")
	assert.Equal(t, "Still Works", page.title)
}

func TestLinkedDataAuthorShapes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Plain", linkedDataAuthor("Plain"))
	assert.Equal(t, "Named", linkedDataAuthor(map[string]any{"name": "Named"}))
	assert.Equal(t, "Listed", linkedDataAuthor([]any{map[string]any{"name": "Listed"}}))
	assert.Equal(t, "First", linkedDataAuthor([]any{"First", "Second"}))
	assert.Empty(t, linkedDataAuthor(nil))
	assert.Empty(t, linkedDataAuthor(42))
}

func pageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebFetcherBuildsSingleItem(t *testing.T) {
	t.Parallel()

	server := pageServer(t, fullPageHTML)
	fetcher := NewWebFetcher(server.Client())

	src := model.Source{URL: server.URL + "/post"}
	items, err := fetcher.Fetch(context.Background(), src, time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, src.URL, item.URL)
	assert.Equal(t, "Meta Title", item.Title)
	assert.Equal(t, "Meta description.", item.Summary)
	assert.Equal(t, "Meta Author", item.Author)
	assert.Equal(t, "Example Site", item.Metadata.String("source"))
	assert.Equal(t, src.URL, item.Metadata.String("source_url"))
	assert.Equal(t, "Meta description.", item.Metadata.String("description"))
}

func TestWebFetcherSourceFallsBackToHost(t *testing.T) {
	t.Parallel()

	server := pageServer(t, `<html><head><title>Bare</title></head><body></body></html>`)
	fetcher := NewWebFetcher(server.Client())

	items, err := fetcher.Fetch(context.Background(), model.Source{URL: server.URL}, time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	assert.Equal(t, u.Host, items[0].Metadata.String("source"))
}

func TestWebFetcherSinceDropsOldPages(t *testing.T) {
	t.Parallel()

	server := pageServer(t, fullPageHTML) // published 2025-06-10
	fetcher := NewWebFetcher(server.Client())

	since := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	items, err := fetcher.Fetch(context.Background(), model.Source{URL: server.URL}, since)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWebFetcherKeepsUndatedPages(t *testing.T) {
	t.Parallel()

	server := pageServer(t, `<html><head><title>No Date</title></head><body></body></html>`)
	fetcher := NewWebFetcher(server.Client())

	since := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	items, err := fetcher.Fetch(context.Background(), model.Source{URL: server.URL}, since)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "No Date", items[0].Title)
}

func TestWebFetcherRejectsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	fetcher := NewWebFetcher(server.Client())
	_, err := fetcher.Fetch(context.Background(), model.Source{URL: server.URL}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
