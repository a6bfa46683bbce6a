package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type ArticlePostgresStorage struct {
	db *sqlx.DB
}

func NewArticleStorage(db *sqlx.DB) *ArticlePostgresStorage {
	return &ArticlePostgresStorage{db: db}
}

// StoreBatch inserts fetched items under a source and reports how many were
// actually new. The articles table holds a UNIQUE constraint on url, so an
// item seen before hits ON CONFLICT DO NOTHING and affects zero rows; only
// genuinely new URLs count.
func (s *ArticlePostgresStorage) StoreBatch(ctx context.Context, sourceID string, items []model.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	saved := 0
	for _, item := range items {
		metadata, err := marshalMeta(item.Metadata)
		if err != nil {
			return saved, err
		}

		res, err := conn.ExecContext(
			ctx,
			`INSERT INTO articles (id, source_id, title, url, published_at, author, content, summary, metadata, fetched_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (url) DO NOTHING;`,
			newID(item.URL),
			sourceID,
			item.Title,
			item.URL,
			item.PublishedAt,
			item.Author,
			item.Content,
			item.Summary,
			metadata,
			time.Now().UTC(),
		)
		if err != nil {
			return saved, err
		}

		if n, err := res.RowsAffected(); err == nil {
			saved += int(n)
		}
	}

	return saved, nil
}

// AllForTopic returns the topic's articles dated inside [since, until],
// newest first. Undated articles never match the window: an article with a
// NULL published_at cannot be placed in any period, so it is left out rather
// than guessed at.
func (s *ArticlePostgresStorage) AllForTopic(ctx context.Context, topicID string, since, until time.Time) ([]model.Article, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbArticle
	if err := conn.SelectContext(
		ctx,
		&rows,
		`SELECT a.* FROM articles a
		 JOIN sources s ON s.id = a.source_id
		 WHERE s.topic_id = $1 AND a.published_at >= $2 AND a.published_at <= $3
		 ORDER BY a.published_at DESC;`,
		topicID,
		since.UTC(),
		until.UTC(),
	); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbArticle, _ int) model.Article {
		return articleFromRow(row)
	}), nil
}

// CountForSource reports how many articles a source has accumulated.
func (s *ArticlePostgresStorage) CountForSource(ctx context.Context, sourceID string) (int, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int
	if err := conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles WHERE source_id = $1;`, sourceID); err != nil {
		return 0, err
	}

	return count, nil
}

type dbArticle struct {
	ID          string         `db:"id"`
	SourceID    string         `db:"source_id"`
	Title       string         `db:"title"`
	URL         string         `db:"url"`
	PublishedAt sql.NullTime   `db:"published_at"`
	Author      string         `db:"author"`
	Content     string         `db:"content"`
	Summary     string         `db:"summary"`
	Metadata    sql.NullString `db:"metadata"`
	FetchedAt   time.Time      `db:"fetched_at"`
}

func articleFromRow(row dbArticle) model.Article {
	article := model.Article{
		ID:        row.ID,
		SourceID:  row.SourceID,
		Title:     row.Title,
		URL:       row.URL,
		Author:    row.Author,
		Content:   row.Content,
		Summary:   row.Summary,
		Metadata:  unmarshalMeta(row.Metadata),
		FetchedAt: row.FetchedAt,
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time
		article.PublishedAt = &t
	}
	return article
}
