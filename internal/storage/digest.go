package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type DigestPostgresStorage struct {
	db *sqlx.DB
}

func NewDigestStorage(db *sqlx.DB) *DigestPostgresStorage {
	return &DigestPostgresStorage{db: db}
}

// Create persists a freshly composed digest and returns it with its ID.
func (s *DigestPostgresStorage) Create(ctx context.Context, digest model.Digest) (model.Digest, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Digest{}, err
	}
	defer conn.Close()

	digest.ID = newID(fmt.Sprintf("%s-%s-%s", digest.TopicID, digest.Frequency, digest.PeriodEnd.Format("2006-01-02")))
	digest.CreatedAt = time.Now().UTC()

	// The blog wired to the topic at generation time; publishing may still
	// target a different one.
	blogID := sql.NullString{String: digest.BlogID, Valid: digest.BlogID != ""}

	if _, err := conn.ExecContext(
		ctx,
		`INSERT INTO digests (id, topic_id, frequency, period_start, period_end, content, summary, article_count, published, blog_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10);`,
		digest.ID,
		digest.TopicID,
		digest.Frequency,
		digest.PeriodStart.UTC(),
		digest.PeriodEnd.UTC(),
		digest.Content,
		digest.Summary,
		digest.ArticleCount,
		blogID,
		digest.CreatedAt,
	); err != nil {
		return model.Digest{}, err
	}

	return digest, nil
}

// ByID looks a digest up by its primary key.
func (s *DigestPostgresStorage) ByID(ctx context.Context, id string) (model.Digest, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Digest{}, err
	}
	defer conn.Close()

	var row dbDigest
	if err := conn.GetContext(ctx, &row, `SELECT * FROM digests WHERE id = $1;`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Digest{}, model.ErrNotFound
		}
		return model.Digest{}, err
	}

	return digestFromRow(row), nil
}

// ForTopic returns up to limit digests for a topic, newest first.
func (s *DigestPostgresStorage) ForTopic(ctx context.Context, topicID string, limit int) ([]model.Digest, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbDigest
	if err := conn.SelectContext(
		ctx,
		&rows,
		`SELECT * FROM digests WHERE topic_id = $1 ORDER BY created_at DESC LIMIT $2;`,
		topicID,
		limit,
	); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbDigest, _ int) model.Digest {
		return digestFromRow(row)
	}), nil
}

// MarkPublished flips the published flag and records where the digest ended
// up. Callers invoke this only after the destination write fully succeeded.
func (s *DigestPostgresStorage) MarkPublished(ctx context.Context, id, publishedURL string) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(
		ctx,
		`UPDATE digests SET published = TRUE, published_url = $1 WHERE id = $2;`,
		publishedURL,
		id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}

	return nil
}

type dbDigest struct {
	ID           string         `db:"id"`
	TopicID      string         `db:"topic_id"`
	Frequency    string         `db:"frequency"`
	PeriodStart  time.Time      `db:"period_start"`
	PeriodEnd    time.Time      `db:"period_end"`
	Content      string         `db:"content"`
	Summary      string         `db:"summary"`
	ArticleCount int            `db:"article_count"`
	Published    bool           `db:"published"`
	BlogID       sql.NullString `db:"blog_id"`
	PublishedURL sql.NullString `db:"published_url"`
	CreatedAt    time.Time      `db:"created_at"`
}

func digestFromRow(row dbDigest) model.Digest {
	return model.Digest{
		ID:           row.ID,
		TopicID:      row.TopicID,
		Frequency:    row.Frequency,
		PeriodStart:  row.PeriodStart,
		PeriodEnd:    row.PeriodEnd,
		Content:      row.Content,
		Summary:      row.Summary,
		ArticleCount: row.ArticleCount,
		Published:    row.Published,
		BlogID:       row.BlogID.String,
		PublishedURL: row.PublishedURL.String,
		CreatedAt:    row.CreatedAt,
	}
}
