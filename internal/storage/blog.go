package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type BlogPostgresStorage struct {
	db *sqlx.DB
}

func NewBlogStorage(db *sqlx.DB) *BlogPostgresStorage {
	return &BlogPostgresStorage{db: db}
}

// Create registers a publishing destination.
func (s *BlogPostgresStorage) Create(ctx context.Context, blog model.Blog) (model.Blog, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Blog{}, err
	}
	defer conn.Close()

	blog.ID = newID(blog.Name)
	blog.Active = true

	config, err := marshalMeta(blog.Config)
	if err != nil {
		return model.Blog{}, err
	}

	if _, err := conn.ExecContext(
		ctx,
		`INSERT INTO blogs (id, name, blog_type, config, active) VALUES ($1, $2, $3, $4, $5);`,
		blog.ID,
		blog.Name,
		blog.Type,
		config,
		blog.Active,
	); err != nil {
		return model.Blog{}, err
	}

	return blog, nil
}

// ByName looks a blog up by its unique name.
func (s *BlogPostgresStorage) ByName(ctx context.Context, name string) (model.Blog, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Blog{}, err
	}
	defer conn.Close()

	var row dbBlog
	if err := conn.GetContext(ctx, &row, `SELECT * FROM blogs WHERE name = $1 AND active = TRUE;`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blog{}, model.ErrNotFound
		}
		return model.Blog{}, err
	}

	return blogFromRow(row), nil
}

// All returns every active blog ordered by name.
func (s *BlogPostgresStorage) All(ctx context.Context) ([]model.Blog, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbBlog
	if err := conn.SelectContext(ctx, &rows, `SELECT * FROM blogs WHERE active = TRUE ORDER BY name;`); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbBlog, _ int) model.Blog {
		return blogFromRow(row)
	}), nil
}

// Link attaches a blog to a topic with per-pair publishing options. Linking
// the same pair twice just refreshes the options.
func (s *BlogPostgresStorage) Link(ctx context.Context, link model.TopicBlog) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO topic_blogs (topic_id, blog_id, category, slug_prefix)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (topic_id, blog_id) DO UPDATE SET category = $3, slug_prefix = $4;`,
		link.TopicID,
		link.BlogID,
		link.Category,
		link.SlugPrefix,
	)
	return err
}

// Unlink detaches whatever blog the topic is linked to. Topics hold at most
// one link, so no blog argument is needed.
func (s *BlogPostgresStorage) Unlink(ctx context.Context, topicID string) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `DELETE FROM topic_blogs WHERE topic_id = $1;`, topicID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}

	return nil
}

// ForTopic resolves the blog a topic publishes to through its link row.
func (s *BlogPostgresStorage) ForTopic(ctx context.Context, topicID string) (model.Blog, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Blog{}, err
	}
	defer conn.Close()

	var row dbBlog
	if err := conn.GetContext(
		ctx,
		&row,
		`SELECT b.* FROM blogs b
		 JOIN topic_blogs tb ON tb.blog_id = b.id
		 WHERE tb.topic_id = $1;`,
		topicID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blog{}, model.ErrNotFound
		}
		return model.Blog{}, err
	}

	return blogFromRow(row), nil
}

// LinkForTopic returns the topic's blog link; topics publish to at most one
// blog, so a lone row is expected.
func (s *BlogPostgresStorage) LinkForTopic(ctx context.Context, topicID string) (model.TopicBlog, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.TopicBlog{}, err
	}
	defer conn.Close()

	var row dbTopicBlog
	if err := conn.GetContext(ctx, &row, `SELECT * FROM topic_blogs WHERE topic_id = $1 LIMIT 1;`, topicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TopicBlog{}, model.ErrNotFound
		}
		return model.TopicBlog{}, err
	}

	return model.TopicBlog{
		TopicID:    row.TopicID,
		BlogID:     row.BlogID,
		Category:   row.Category,
		SlugPrefix: row.SlugPrefix,
	}, nil
}

type dbBlog struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	BlogType string         `db:"blog_type"`
	Config   sql.NullString `db:"config"`
	Active   bool           `db:"active"`
}

type dbTopicBlog struct {
	TopicID    string `db:"topic_id"`
	BlogID     string `db:"blog_id"`
	Category   string `db:"category"`
	SlugPrefix string `db:"slug_prefix"`
}

func blogFromRow(row dbBlog) model.Blog {
	return model.Blog{
		ID:     row.ID,
		Name:   row.Name,
		Type:   row.BlogType,
		Config: unmarshalMeta(row.Config),
		Active: row.Active,
	}
}
