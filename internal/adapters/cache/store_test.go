package cache

import (
	"context"
	"database/sql"
	"ev-charge-planner/internal/resilience"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// exerciseStore checks the round trip every store must support.
func exerciseStore(t *testing.T, store resilience.Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "route:missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	storedAt := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	in := resilience.Entry{Value: []byte(`{"distanceKm":12.5}`), StoredAt: storedAt}
	if err := store.Save(ctx, "route:a", in, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, ok, err := store.Load(ctx, "route:a")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(out.Value) != string(in.Value) {
		t.Fatalf("value = %s, want %s", out.Value, in.Value)
	}
	if !out.StoredAt.Equal(storedAt) {
		t.Fatalf("storedAt = %v, want %v", out.StoredAt, storedAt)
	}

	overwrite := resilience.Entry{Value: []byte(`{"distanceKm":13}`), StoredAt: storedAt.Add(time.Minute)}
	if err := store.Save(ctx, "route:a", overwrite, time.Hour); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	out, _, _ = store.Load(ctx, "route:a")
	if string(out.Value) != string(overwrite.Value) {
		t.Fatalf("value after overwrite = %s", out.Value)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	exerciseStore(t, store)
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "planner")
	exerciseStore(t, store)

	if !mr.Exists("planner:route:a") {
		t.Fatalf("expected prefixed key in redis")
	}
	if ttl := mr.TTL("planner:route:a"); ttl != time.Hour {
		t.Fatalf("redis ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, err := store.Load(context.Background(), "route:a"); err != nil || ok {
		t.Fatalf("expired key: ok=%v err=%v", ok, err)
	}
}

func openTestSqlite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := InitSqliteSchema(context.Background(), db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func TestSqliteStore(t *testing.T) {
	store := NewSqliteStore(openTestSqlite(t))
	exerciseStore(t, store)
}

func TestSqliteStorePurgeExpired(t *testing.T) {
	store := NewSqliteStore(openTestSqlite(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	_ = store.Save(ctx, "poi:old", resilience.Entry{Value: []byte(`[]`), StoredAt: base}, 30*time.Minute)
	_ = store.Save(ctx, "geo:fresh", resilience.Entry{Value: []byte(`{}`), StoredAt: base}, 2*time.Hour)

	n, err := store.PurgeExpired(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}
	if _, ok, _ := store.Load(ctx, "poi:old"); ok {
		t.Fatalf("expired row still present")
	}
	if _, ok, _ := store.Load(ctx, "geo:fresh"); !ok {
		t.Fatalf("live row was purged")
	}
}

func TestSQLStoreNilDB(t *testing.T) {
	store := NewSQLStore(nil)
	if _, _, err := store.Load(context.Background(), "k"); err == nil {
		t.Fatalf("expected error for nil db")
	}
	if err := store.Save(context.Background(), "k", resilience.Entry{}, time.Minute); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
