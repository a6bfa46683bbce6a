package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type TopicPostgresStorage struct {
	db *sqlx.DB
}

func NewTopicStorage(db *sqlx.DB) *TopicPostgresStorage {
	return &TopicPostgresStorage{db: db}
}

// Create inserts a new topic and returns it with its generated ID.
func (s *TopicPostgresStorage) Create(ctx context.Context, name, description string) (model.Topic, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Topic{}, err
	}
	defer conn.Close()

	topic := model.Topic{
		ID:          newID(name),
		Name:        name,
		Description: description,
		Active:      true,
	}

	if _, err := conn.ExecContext(
		ctx,
		`INSERT INTO topics (id, name, description, active) VALUES ($1, $2, $3, $4);`,
		topic.ID,
		topic.Name,
		topic.Description,
		topic.Active,
	); err != nil {
		return model.Topic{}, err
	}

	return topic, nil
}

// ByName looks a topic up by its unique name. Missing topics surface as
// model.ErrNotFound so callers can tell "no such topic" from real failures.
func (s *TopicPostgresStorage) ByName(ctx context.Context, name string) (model.Topic, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Topic{}, err
	}
	defer conn.Close()

	var row dbTopic
	if err := conn.GetContext(ctx, &row, `SELECT * FROM topics WHERE name = $1 AND active = TRUE;`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Topic{}, model.ErrNotFound
		}
		return model.Topic{}, err
	}

	return topicFromRow(row), nil
}

// ByID looks a topic up by its primary key.
func (s *TopicPostgresStorage) ByID(ctx context.Context, id string) (model.Topic, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Topic{}, err
	}
	defer conn.Close()

	var row dbTopic
	if err := conn.GetContext(ctx, &row, `SELECT * FROM topics WHERE id = $1;`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Topic{}, model.ErrNotFound
		}
		return model.Topic{}, err
	}

	return topicFromRow(row), nil
}

// All returns every active topic ordered by name.
func (s *TopicPostgresStorage) All(ctx context.Context) ([]model.Topic, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbTopic
	if err := conn.SelectContext(ctx, &rows, `SELECT * FROM topics WHERE active = TRUE ORDER BY name;`); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbTopic, _ int) model.Topic {
		return topicFromRow(row)
	}), nil
}

// Delete deactivates a topic rather than dropping the row, so its articles
// and digests stay queryable by ID while the topic disappears from listings
// and name lookups.
func (s *TopicPostgresStorage) Delete(ctx context.Context, id string) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `UPDATE topics SET active = FALSE WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}

	return nil
}

type dbTopic struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Active      bool   `db:"active"`
}

func topicFromRow(row dbTopic) model.Topic {
	return model.Topic{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Active:      row.Active,
	}
}
