// Package testutil provides shared helpers for integration tests.
// Helpers skip the calling test when TEST_DATABASE_URL is not set, so unit
// tests run without a database.
package testutil

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/osama1998H/frappe/internal/database"
)

const dsnEnv = "TEST_DATABASE_URL"

var (
	quiet       = slog.New(slog.DiscardHandler)
	testConnect = database.ConnectOptions{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
)

// NewPool connects to the test database the same way the server does and
// closes the pool when the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := database.Connect(context.Background(), requireDSN(t), testConnect, quiet)
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on a fresh pool. It is rolled back when the
// test finishes, so rows written by one test are never seen by another.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB returns a database/sql handle over a test pool, for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db := stdlib.OpenDBFromPool(NewPool(t))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MigrateMain applies all migrations before running m, so tests in the
// calling package can assume the current schema. Without a test database it
// only runs m, and every integration test skips itself.
func MigrateMain(m *testing.M) int {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		return m.Run()
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, dsn, testConnect, quiet)
	if err != nil {
		log.Fatalf("testutil.MigrateMain: %v", err)
	}
	if err := database.Migrate(ctx, pool, quiet); err != nil {
		pool.Close()
		log.Fatalf("testutil.MigrateMain: %v", err)
	}
	pool.Close()

	return m.Run()
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}
	return dsn
}
