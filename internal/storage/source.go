package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type SourcePostgresStorage struct {
	db *sqlx.DB
}

func NewSourceStorage(db *sqlx.DB) *SourcePostgresStorage {
	return &SourcePostgresStorage{db: db}
}

// Create registers a content source under a topic.
func (s *SourcePostgresStorage) Create(ctx context.Context, src model.Source) (model.Source, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Source{}, err
	}
	defer conn.Close()

	src.ID = newID(src.TopicID + "-" + src.URL)

	config, err := marshalMeta(src.Config)
	if err != nil {
		return model.Source{}, err
	}
	metadata, err := marshalMeta(src.Metadata)
	if err != nil {
		return model.Source{}, err
	}

	if _, err := conn.ExecContext(
		ctx,
		`INSERT INTO sources (id, topic_id, url, source_type, config, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6);`,
		src.ID,
		src.TopicID,
		src.URL,
		src.Type,
		config,
		metadata,
	); err != nil {
		return model.Source{}, err
	}

	return src, nil
}

// ForTopic returns all sources registered under a topic, ordered by URL.
func (s *SourcePostgresStorage) ForTopic(ctx context.Context, topicID string) ([]model.Source, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbSource
	if err := conn.SelectContext(ctx, &rows, `SELECT * FROM sources WHERE topic_id = $1 ORDER BY url;`, topicID); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbSource, _ int) model.Source {
		return sourceFromRow(row)
	}), nil
}

// Delete removes a source and, via cascade, its articles.
func (s *SourcePostgresStorage) Delete(ctx context.Context, id string) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `DELETE FROM sources WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}

	return nil
}

// TouchFetched records the moment a source was last pulled.
func (s *SourcePostgresStorage) TouchFetched(ctx context.Context, id string, at time.Time) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `UPDATE sources SET last_fetched_at = $1 WHERE id = $2;`, at.UTC(), id)
	return err
}

type dbSource struct {
	ID            string         `db:"id"`
	TopicID       string         `db:"topic_id"`
	URL           string         `db:"url"`
	SourceType    string         `db:"source_type"`
	Config        sql.NullString `db:"config"`
	LastFetchedAt sql.NullTime   `db:"last_fetched_at"`
	Metadata      sql.NullString `db:"metadata"`
}

func sourceFromRow(row dbSource) model.Source {
	src := model.Source{
		ID:       row.ID,
		TopicID:  row.TopicID,
		URL:      row.URL,
		Type:     row.SourceType,
		Config:   unmarshalMeta(row.Config),
		Metadata: unmarshalMeta(row.Metadata),
	}
	if row.LastFetchedAt.Valid {
		t := row.LastFetchedAt.Time
		src.LastFetchedAt = &t
	}
	return src
}
