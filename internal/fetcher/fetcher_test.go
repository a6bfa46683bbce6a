package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"digesttracker/internal/model"
	"digesttracker/internal/source"
)

type stubBackend struct {
	items []model.Item
	err   error
}

func (s stubBackend) Fetch(_ context.Context, _ model.Source, _ time.Time) ([]model.Item, error) {
	return s.items, s.err
}

// memArticles stores URLs like the real ingestor: a second batch with known
// URLs saves nothing.
type memArticles struct {
	seen map[string]bool
	err  error
}

func newMemArticles() *memArticles {
	return &memArticles{seen: map[string]bool{}}
}

func (m *memArticles) StoreBatch(_ context.Context, _ string, items []model.Item) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	saved := 0
	for _, item := range items {
		if !m.seen[item.URL] {
			m.seen[item.URL] = true
			saved++
		}
	}
	return saved, nil
}

type memSources struct {
	sources []model.Source
	touched []string
}

func (m *memSources) ForTopic(_ context.Context, _ string) ([]model.Source, error) {
	return m.sources, nil
}

func (m *memSources) TouchFetched(_ context.Context, id string, _ time.Time) error {
	m.touched = append(m.touched, id)
	return nil
}

func items(urls ...string) []model.Item {
	out := make([]model.Item, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.Item{URL: u, Title: u})
	}
	return out
}

func newRunner(articles ArticleStorage, sources SourceStorage, registry *source.Registry) *Runner {
	return New(articles, sources, registry, time.Second, zap.NewNop())
}

func TestFetchTopicContinuesPastFailures(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register("ok", stubBackend{items: items("https://a/1", "https://a/2")})
	registry.Register("boom", stubBackend{err: errors.New("feed on fire")})

	articles := newMemArticles()
	sources := &memSources{sources: []model.Source{
		{ID: "s1", Type: "boom", URL: "https://broken.example.com"},
		{ID: "s2", Type: "ok", URL: "https://fine.example.com"},
	}}

	report, err := newRunner(articles, sources, registry).FetchTopic(context.Background(), "topic-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.Error(t, report.Results[0].Err)
	assert.Zero(t, report.Results[0].Saved)

	assert.NoError(t, report.Results[1].Err)
	assert.Equal(t, 2, report.Results[1].Found)
	assert.Equal(t, 2, report.Results[1].Saved)
	assert.Equal(t, 2, report.Found)
	assert.Equal(t, 2, report.Saved)

	// Only the successfully fetched source gets its fetch time recorded.
	assert.Equal(t, []string{"s2"}, sources.touched)
}

func TestFetchTopicUnknownSourceType(t *testing.T) {
	t.Parallel()

	articles := newMemArticles()
	sources := &memSources{sources: []model.Source{
		{ID: "s1", Type: "telegraph", URL: "https://odd.example.com"},
	}}

	report, err := newRunner(articles, sources, source.NewRegistry()).FetchTopic(context.Background(), "topic-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.ErrorContains(t, report.Results[0].Err, "unknown source type")
	assert.Zero(t, report.Saved)
}

func TestFetchTopicSecondRunSavesNothing(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register("ok", stubBackend{items: items("https://a/1", "https://a/2", "https://a/3")})

	articles := newMemArticles()
	sources := &memSources{sources: []model.Source{
		{ID: "s1", Type: "ok", URL: "https://fine.example.com"},
	}}
	runner := newRunner(articles, sources, registry)

	first, err := runner.FetchTopic(context.Background(), "topic-1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Saved)

	second, err := runner.FetchTopic(context.Background(), "topic-1", time.Time{})
	require.NoError(t, err)
	assert.Zero(t, second.Saved)
	assert.Equal(t, 3, second.Found)
	assert.Equal(t, 3, second.Results[0].Found)
}

func TestFetchTopicStoreFailureIsolated(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register("ok", stubBackend{items: items("https://a/1")})

	articles := newMemArticles()
	articles.err = errors.New("db unavailable")
	sources := &memSources{sources: []model.Source{
		{ID: "s1", Type: "ok", URL: "https://fine.example.com"},
		{ID: "s2", Type: "ok", URL: "https://also.example.com"},
	}}

	report, err := newRunner(articles, sources, registry).FetchTopic(context.Background(), "topic-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Error(t, report.Results[0].Err)
	assert.Error(t, report.Results[1].Err)
	assert.Empty(t, sources.touched)
}
