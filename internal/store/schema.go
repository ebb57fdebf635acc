package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS links (
		code         TEXT PRIMARY KEY,
		seq          BIGINT GENERATED ALWAYS AS IDENTITY UNIQUE,
		original_url TEXT NOT NULL,
		owner_id     TEXT,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS links_owner_created_idx ON links (owner_id, created_at DESC, seq DESC)`,
	`CREATE TABLE IF NOT EXISTS clicks (
		id         UUID PRIMARY KEY,
		seq        BIGINT GENERATED ALWAYS AS IDENTITY UNIQUE,
		link_code  TEXT NOT NULL REFERENCES links (code),
		clicked_at TIMESTAMPTZ NOT NULL,
		client_ip  TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		referrer   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS clicks_link_clicked_idx ON clicks (link_code, clicked_at DESC, seq DESC)`,
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}

	return nil
}
