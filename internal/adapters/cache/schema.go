package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the fetch_cache table in Postgres.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return initSchema(ctx, db, []string{
		`
	CREATE TABLE IF NOT EXISTS fetch_cache (
        cache_key TEXT PRIMARY KEY,
        value BYTEA NOT NULL,
        stored_at_ms BIGINT NOT NULL,
        expires_at_ms BIGINT NOT NULL
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_fetch_cache_expires_at
    ON fetch_cache(expires_at_ms);
	`,
	})
}

// InitSqliteSchema creates the fetch_cache table in SQLite.
func InitSqliteSchema(ctx context.Context, db *sql.DB) error {
	return initSchema(ctx, db, []string{
		`
	CREATE TABLE IF NOT EXISTS fetch_cache (
        cache_key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        stored_at_ms INTEGER NOT NULL,
        expires_at_ms INTEGER NOT NULL
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_fetch_cache_expires_at
    ON fetch_cache(expires_at_ms);
	`,
	})
}

func initSchema(ctx context.Context, db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
