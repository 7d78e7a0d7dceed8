package main

import (
	"context"
	"database/sql"
	"ev-charge-planner/internal/adapters/cache"
	"ev-charge-planner/internal/config"
	"ev-charge-planner/internal/platform/db"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dbtool prepares the persistent cache tables and optionally purges expired rows.
//
//	dbtool                # Postgres via DATABASE_URL, else SQLite via SQLITE_PATH
//	dbtool -purge         # also delete expired entries
func main() {
	purge := flag.Bool("purge", false, "delete expired cache entries after creating the schema")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		initAndPurge(ctx, conn, cache.InitSchema, cache.NewSQLStore(conn), *purge)
		return
	}

	sqlitePath := config.Get("SQLITE_PATH", "data/cache.db")
	conn, err := db.OpenSQLite(sqlitePath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	initAndPurge(ctx, conn, cache.InitSqliteSchema, cache.NewSqliteStore(conn), *purge)
}

type purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

func initAndPurge(
	ctx context.Context,
	conn *sql.DB,
	initSchema func(context.Context, *sql.DB) error,
	store purger,
	purge bool,
) {
	log.Println("Initializing cache schema...")
	if err := initSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if !purge {
		return
	}

	log.Println("Purging expired cache entries...")
	n, err := store.PurgeExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}
	log.Printf("Purge complete: rows=%d", n)
}
