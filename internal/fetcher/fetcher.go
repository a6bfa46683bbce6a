// Package fetcher runs fetch rounds over a topic's sources: look up the
// backend for each source, pull and normalize its items, and store them
// with URL dedup. Sources are processed sequentially and failures are
// isolated; one broken feed never aborts the rest of the run.
package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"digesttracker/internal/model"
	"digesttracker/internal/source"
)

type ArticleStorage interface {
	StoreBatch(ctx context.Context, sourceID string, items []model.Item) (int, error)
}

type SourceStorage interface {
	ForTopic(ctx context.Context, topicID string) ([]model.Source, error)
	TouchFetched(ctx context.Context, id string, at time.Time) error
}

type Runner struct {
	articles ArticleStorage
	sources  SourceStorage
	registry *source.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

func New(
	articles ArticleStorage,
	sources SourceStorage,
	registry *source.Registry,
	timeout time.Duration,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		articles: articles,
		sources:  sources,
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// SourceResult records one source's outcome within a fetch run: either the
// found/saved counts or the reason it contributed nothing.
type SourceResult struct {
	Source model.Source
	Found  int
	Saved  int
	Err    error
}

// Report aggregates a whole run. Saved counts only newly stored articles;
// duplicates are absorbed silently by the storage layer.
type Report struct {
	Results []SourceResult
	Found   int
	Saved   int
}

// FetchTopic pulls every source of the topic in order. Each source gets its
// own bounded timeout; a timeout or fetch error yields a zero-result entry
// in the report and the run moves on.
func (r *Runner) FetchTopic(ctx context.Context, topicID string, since time.Time) (Report, error) {
	srcs, err := r.sources.ForTopic(ctx, topicID)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, src := range srcs {
		result := r.fetchOne(ctx, src, since)
		report.Results = append(report.Results, result)
		report.Found += result.Found
		report.Saved += result.Saved
	}

	return report, nil
}

func (r *Runner) fetchOne(ctx context.Context, src model.Source, since time.Time) SourceResult {
	result := SourceResult{Source: src}

	backend, err := r.registry.Lookup(src.Type)
	if err != nil {
		result.Err = err
		r.logger.Warn("skipping source", zap.String("url", src.URL), zap.Error(err))
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	items, err := backend.Fetch(fetchCtx, src, since)
	if err != nil {
		result.Err = err
		r.logger.Warn("fetch failed", zap.String("url", src.URL), zap.Error(err))
		return result
	}
	result.Found = len(items)

	saved, err := r.articles.StoreBatch(ctx, src.ID, items)
	if err != nil {
		result.Err = err
		r.logger.Warn("store failed", zap.String("url", src.URL), zap.Error(err))
		return result
	}
	result.Saved = saved

	if err := r.sources.TouchFetched(ctx, src.ID, time.Now().UTC()); err != nil {
		r.logger.Warn("record fetch time", zap.String("url", src.URL), zap.Error(err))
	}

	r.logger.Debug("source fetched",
		zap.String("url", src.URL),
		zap.Int("found", result.Found),
		zap.Int("saved", result.Saved),
	)

	return result
}
