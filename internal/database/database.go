// Package database opens the Postgres pool and applies schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/osama1998H/frappe/migrations"
)

// ConnectOptions bounds how long Connect waits for the database to come up.
type ConnectOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultConnectOptions waits for roughly half a minute.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{MaxAttempts: 8, BaseDelay: 250 * time.Millisecond}
}

// Connect creates a pool and pings it, retrying with exponential backoff
// until the database answers or the attempts are spent.
func Connect(ctx context.Context, dsn string, opts ConnectOptions, log *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("database.Connect: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database.Connect: create pool: %w", err)
	}

	b := retry.NewExponential(max(opts.BaseDelay, time.Millisecond))
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(uint64(max(opts.MaxAttempts, 1)-1), b)

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			log.WarnContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("database.Connect: ping after %d attempts: %w", attempt, err)
	}
	return pool, nil
}

// Migrate applies every pending migration embedded in the migrations package.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("database.Migrate: create provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return nil
}

// Status reports each known migration and whether it is applied.
func Status(ctx context.Context, pool *pgxpool.Pool) ([]*goose.MigrationStatus, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("database.Status: create provider: %w", err)
	}
	status, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("database.Status: %w", err)
	}
	return status, nil
}
