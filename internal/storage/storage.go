// Package storage persists topics, sources, articles, blogs, digests and
// schedules in Postgres. Articles claim their URL as a uniqueness constraint
// on insert, which is what makes repeated fetches idempotent.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"digesttracker/internal/model"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		source_type TEXT NOT NULL,
		config TEXT,
		last_fetched_at TIMESTAMPTZ,
		metadata TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL UNIQUE,
		published_at TIMESTAMPTZ,
		author TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		fetched_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS blogs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		blog_type TEXT NOT NULL,
		config TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS topic_blogs (
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		blog_id TEXT NOT NULL REFERENCES blogs(id) ON DELETE CASCADE,
		category TEXT NOT NULL DEFAULT '',
		slug_prefix TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (topic_id, blog_id)
	);`,
	`CREATE TABLE IF NOT EXISTS digests (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		frequency TEXT NOT NULL DEFAULT '',
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		article_count INTEGER NOT NULL DEFAULT 0,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		blog_id TEXT REFERENCES blogs(id) ON DELETE SET NULL,
		published_url TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		frequency TEXT NOT NULL,
		cron_expr TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	);`,
}

// Bootstrap creates all tables that do not exist yet.
func Bootstrap(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// newID builds a record ID from an 8-hex-char digest of the natural key
// followed by a random UUID, so IDs sort near their siblings while staying
// unguessable. An empty seed yields a bare UUID.
func newID(seed string) string {
	if seed == "" {
		return uuid.NewString()
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:8] + "-" + uuid.NewString()
}

// marshalMeta serializes open metadata for a TEXT column; empty maps are
// stored as NULL.
func marshalMeta(m model.Metadata) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// unmarshalMeta restores open metadata from a nullable TEXT column. Rows
// written by older versions may hold malformed payloads; those decode to nil
// rather than failing the whole query.
func unmarshalMeta(ns sql.NullString) model.Metadata {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var m model.Metadata
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil
	}
	return m
}
