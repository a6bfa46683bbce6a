package digest

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digesttracker/internal/model"
)

type fakeTopics struct {
	topics map[string]model.Topic
}

func (f *fakeTopics) ByName(_ context.Context, name string) (model.Topic, error) {
	topic, ok := f.topics[name]
	if !ok {
		return model.Topic{}, model.ErrNotFound
	}
	return topic, nil
}

// fakeArticles applies the same window semantics as the real selector:
// inclusive bounds, undated articles never match, newest first.
type fakeArticles struct {
	articles  []model.Article
	lastSince time.Time
	lastUntil time.Time
}

func (f *fakeArticles) AllForTopic(_ context.Context, _ string, since, until time.Time) ([]model.Article, error) {
	f.lastSince, f.lastUntil = since, until

	var out []model.Article
	for _, a := range f.articles {
		if a.PublishedAt == nil {
			continue
		}
		if a.PublishedAt.Before(since) || a.PublishedAt.After(until) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(*out[j].PublishedAt)
	})
	return out, nil
}

type fakeDigests struct {
	created []model.Digest
}

func (f *fakeDigests) Create(_ context.Context, digest model.Digest) (model.Digest, error) {
	digest.ID = "digest-1"
	digest.CreatedAt = time.Now().UTC()
	f.created = append(f.created, digest)
	return digest, nil
}

type fakeBlogs struct {
	blog *model.Blog
}

func (f *fakeBlogs) ForTopic(_ context.Context, _ string) (model.Blog, error) {
	if f.blog == nil {
		return model.Blog{}, model.ErrNotFound
	}
	return *f.blog, nil
}

type generatorFixture struct {
	generator *Generator
	articles  *fakeArticles
	digests   *fakeDigests
}

func newFixture(articles []model.Article, blog *model.Blog, opts Options) generatorFixture {
	topics := &fakeTopics{topics: map[string]model.Topic{
		"markets": {ID: "topic-1", Name: "markets", Active: true},
	}}
	articleStore := &fakeArticles{articles: articles}
	digestStore := &fakeDigests{}
	return generatorFixture{
		generator: NewGenerator(topics, articleStore, digestStore, &fakeBlogs{blog: blog}, opts),
		articles:  articleStore,
		digests:   digestStore,
	}
}

func hoursAgo(h int) *time.Time {
	t := time.Now().UTC().Add(-time.Duration(h) * time.Hour)
	return &t
}

func marketArticle(title string, published *time.Time) model.Article {
	return model.Article{
		Title:       title,
		URL:         "https://markets.example.com/" + strings.ToLower(title),
		Content:     "body",
		PublishedAt: published,
		Metadata:    model.Metadata{"source": "MarketWatch"},
	}
}

func TestGenerateUnknownTopic(t *testing.T) {
	t.Parallel()

	fx := newFixture(nil, nil, Options{})
	_, err := fx.generator.Generate(context.Background(), Request{Topic: "nope"})
	require.ErrorIs(t, err, ErrTopicNotFound)
	assert.Empty(t, fx.digests.created)
}

func TestGenerateEmptyWindowStoresNothing(t *testing.T) {
	t.Parallel()

	fx := newFixture(nil, nil, Options{})
	_, err := fx.generator.Generate(context.Background(), Request{Topic: "markets"})
	require.ErrorIs(t, err, ErrNoArticles)
	assert.Empty(t, fx.digests.created)
}

func TestGenerateWeeklyMarketsDigest(t *testing.T) {
	t.Parallel()

	articles := []model.Article{
		marketArticle("Rally", hoursAgo(1)),
		marketArticle("Selloff", hoursAgo(2)),
		marketArticle("Sideways", hoursAgo(3)),
	}
	fx := newFixture(articles, nil, Options{})

	result, err := fx.generator.Generate(context.Background(), Request{Topic: "markets"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Digest.ArticleCount)
	assert.Equal(t, "weekly", result.Digest.Frequency)
	assert.Contains(t, result.Digest.Content, "🔥 Top Stories")
	assert.Equal(t, "Tracked 3 articles from 3 from MarketWatch", result.Digest.Summary)
	assert.NotEmpty(t, result.Period)

	require.Len(t, fx.digests.created, 1)
	stored := fx.digests.created[0]
	assert.Equal(t, "topic-1", stored.TopicID)
	assert.False(t, stored.Published)
	assert.WithinDuration(t, stored.PeriodStart.AddDate(0, 0, 7), stored.PeriodEnd, time.Second)
}

func TestGenerateCapKeepsNewestArticles(t *testing.T) {
	t.Parallel()

	var articles []model.Article
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, name := range names {
		articles = append(articles, marketArticle(name, hoursAgo(i+1)))
	}
	fx := newFixture(articles, nil, Options{MaxArticles: 5})

	result, err := fx.generator.Generate(context.Background(), Request{Topic: "markets"})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Digest.ArticleCount)
	assert.Equal(t, "Tracked 5 articles from 5 from MarketWatch", result.Digest.Summary)
	assert.Contains(t, result.Digest.Content, "*E*")
	assert.NotContains(t, result.Digest.Content, "*F*")
}

func TestGenerateHonorsExplicitWindow(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	inWindow := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	fx := newFixture([]model.Article{marketArticle("March", &inWindow)}, nil, Options{})
	_, err := fx.generator.Generate(context.Background(), Request{
		Topic: "markets",
		Since: since,
		Until: until,
	})
	require.NoError(t, err)

	assert.True(t, fx.articles.lastSince.Equal(since))
	assert.True(t, fx.articles.lastUntil.Equal(until))
}

func TestGenerateDefaultWindowFromDays(t *testing.T) {
	t.Parallel()

	fx := newFixture([]model.Article{marketArticle("Recent", hoursAgo(1))}, nil, Options{})
	_, err := fx.generator.Generate(context.Background(), Request{Topic: "markets", Days: 3})
	require.NoError(t, err)

	assert.Equal(t, 72*time.Hour, fx.articles.lastUntil.Sub(fx.articles.lastSince))
}

func TestGenerateRecordsLinkedBlog(t *testing.T) {
	t.Parallel()

	articles := []model.Article{marketArticle("Rally", hoursAgo(1))}

	linked := newFixture(articles, &model.Blog{ID: "blog-1", Name: "myblog"}, Options{})
	result, err := linked.generator.Generate(context.Background(), Request{Topic: "markets"})
	require.NoError(t, err)
	assert.Equal(t, "blog-1", result.Digest.BlogID)

	unlinked := newFixture(articles, nil, Options{})
	result, err = unlinked.generator.Generate(context.Background(), Request{Topic: "markets"})
	require.NoError(t, err)
	assert.Empty(t, result.Digest.BlogID)
}

func TestGenerateStyleOverride(t *testing.T) {
	t.Parallel()

	articles := []model.Article{marketArticle("Rally", hoursAgo(1))}
	fx := newFixture(articles, nil, Options{Style: StyleChat})

	result, err := fx.generator.Generate(context.Background(), Request{
		Topic: "markets",
		Style: StyleMarkdown,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Digest.Content, "# "), result.Digest.Content)
}
