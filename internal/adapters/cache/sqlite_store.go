package cache

import (
	"context"
	"database/sql"
	"errors"
	"ev-charge-planner/internal/resilience"
	"fmt"
	"strings"
	"time"
)

// SQLite backed cache store. Same table layout as SQLStore with
// SQLite placeholders and upsert syntax.
type SqliteStore struct {
	DB *sql.DB
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{DB: db}
}

func (s *SqliteStore) Load(ctx context.Context, key string) (resilience.Entry, bool, error) {
	if s.DB == nil {
		return resilience.Entry{}, false, errors.New("sqlite store: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return resilience.Entry{}, false, errors.New("get fetch cache: key must not be empty")
	}

	q := `
	SELECT 
        value,
        stored_at_ms
    FROM fetch_cache
    WHERE cache_key = ?;
	`

	var value []byte
	var storedAtMs int64
	err := s.DB.QueryRowContext(ctx, q, key).Scan(&value, &storedAtMs)
	if errors.Is(err, sql.ErrNoRows) {
		return resilience.Entry{}, false, nil
	}
	if err != nil {
		return resilience.Entry{}, false, fmt.Errorf("get fetch cache: query fetch_cache table: %w", err)
	}

	return resilience.Entry{Value: value, StoredAt: time.UnixMilli(storedAtMs)}, true, nil
}

func (s *SqliteStore) Save(ctx context.Context, key string, e resilience.Entry, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("sqlite store: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert fetch cache: key must not be empty")
	}

	q := `
	INSERT OR REPLACE INTO fetch_cache (
        cache_key,
        value,
        stored_at_ms,
        expires_at_ms
    )
    VALUES (?, ?, ?, ?);
	`

	expires := e.StoredAt.Add(ttl)
	if _, err := s.DB.ExecContext(ctx, q, key, e.Value, e.StoredAt.UnixMilli(), expires.UnixMilli()); err != nil {
		return fmt.Errorf("insert fetch cache key=%q: %w", key, err)
	}

	return nil
}

// PurgeExpired deletes rows whose TTL ended before now.
func (s *SqliteStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM fetch_cache WHERE expires_at_ms <= ?;`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge fetch cache: %w", err)
	}
	return res.RowsAffected()
}
