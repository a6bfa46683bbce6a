// Package digest selects a topic's articles over a time window and composes
// them into a rendered digest document.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digesttracker/internal/model"
)

// Nothing-to-do outcomes. Both mean the call had no effect: no digest
// record is created and no partial state is left behind.
var (
	ErrTopicNotFound = errors.New("topic not found")
	ErrNoArticles    = errors.New("no articles in period")
)

const displayTimeLayout = "Jan 02, 2006 03:04 PM"

type TopicStorage interface {
	ByName(ctx context.Context, name string) (model.Topic, error)
}

type ArticleStorage interface {
	AllForTopic(ctx context.Context, topicID string, since, until time.Time) ([]model.Article, error)
}

type DigestStorage interface {
	Create(ctx context.Context, digest model.Digest) (model.Digest, error)
}

type BlogStorage interface {
	ForTopic(ctx context.Context, topicID string) (model.Blog, error)
}

// Options tune generation. Zero values fall back to the defaults: cap 50,
// chat style.
type Options struct {
	MaxArticles int
	Style       string
	ShowURLs    bool
}

type Generator struct {
	topics   TopicStorage
	articles ArticleStorage
	digests  DigestStorage
	blogs    BlogStorage
	opts     Options
}

func NewGenerator(
	topics TopicStorage,
	articles ArticleStorage,
	digests DigestStorage,
	blogs BlogStorage,
	opts Options,
) *Generator {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 50
	}
	if opts.Style == "" {
		opts.Style = StyleChat
	}
	return &Generator{
		topics:   topics,
		articles: articles,
		digests:  digests,
		blogs:    blogs,
		opts:     opts,
	}
}

// Request describes one generation call. Zero Until means "now"; zero Since
// derives from Days (default 7) counted back from Until. Style overrides
// the generator's configured style for this call only.
type Request struct {
	Topic     string
	Frequency string
	Days      int
	Since     time.Time
	Until     time.Time
	Style     string
}

// Result carries the stored digest plus display extras.
type Result struct {
	Digest model.Digest
	Topic  model.Topic
	Period string
}

// Generate selects the topic's articles inside [since, until], newest
// first, caps them, renders the digest body and structural summary, and
// stores the Digest record. An unknown topic or an empty window is a
// nothing-to-do outcome, not a failure; no record is created.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	topic, err := g.topics.ByName(ctx, req.Topic)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Result{}, ErrTopicNotFound
		}
		return Result{}, fmt.Errorf("look up topic %q: %w", req.Topic, err)
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = "weekly"
	}
	days := req.Days
	if days <= 0 {
		days = 7
	}

	until := req.Until
	if until.IsZero() {
		until = time.Now().UTC()
	}
	since := req.Since
	if since.IsZero() {
		since = until.AddDate(0, 0, -days)
	}

	articles, err := g.articles.AllForTopic(ctx, topic.ID, since, until)
	if err != nil {
		return Result{}, fmt.Errorf("select articles for %q: %w", req.Topic, err)
	}
	if len(articles) == 0 {
		return Result{}, ErrNoArticles
	}

	if len(articles) > g.opts.MaxArticles {
		articles = articles[:g.opts.MaxArticles]
	}

	style := g.opts.Style
	if req.Style != "" {
		style = req.Style
	}
	input := Input{
		Topic:     topic,
		Articles:  articles,
		Frequency: frequency,
		Since:     since,
		Until:     until,
		ShowURLs:  g.opts.ShowURLs,
	}

	record := model.Digest{
		TopicID:      topic.ID,
		Frequency:    frequency,
		PeriodStart:  since,
		PeriodEnd:    until,
		Content:      Render(style, input),
		Summary:      Summarize(articles),
		ArticleCount: len(articles),
	}

	// Remember which blog the topic pointed at when the digest was made;
	// publishing may still target a different one.
	blog, err := g.blogs.ForTopic(ctx, topic.ID)
	switch {
	case err == nil:
		record.BlogID = blog.ID
	case !errors.Is(err, model.ErrNotFound):
		return Result{}, fmt.Errorf("resolve blog for %q: %w", req.Topic, err)
	}

	stored, err := g.digests.Create(ctx, record)
	if err != nil {
		return Result{}, fmt.Errorf("store digest: %w", err)
	}

	return Result{
		Digest: stored,
		Topic:  topic,
		Period: FormatPeriod(since, until),
	}, nil
}

// FormatPeriod renders a window for display.
func FormatPeriod(since, until time.Time) string {
	return since.Format(displayTimeLayout) + " - " + until.Format(displayTimeLayout)
}
