// Package main provides deskctl, the administration CLI for desk pages and
// permission rules. It shares configuration and wiring with the API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/osama1998H/frappe/internal/app"
	"github.com/osama1998H/frappe/internal/config"
	"github.com/osama1998H/frappe/internal/database"
	"github.com/osama1998H/frappe/internal/logging"
)

func main() {
	if err := newRootCmd(openBackend, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openBackend loads configuration and connects to the database.
func openBackend(ctx context.Context, configFile string) (*backend, error) {
	if configFile != "" {
		if err := os.Setenv("DESK_CONFIG", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Human-facing output goes to stdout; logs go to stderr.
	logger, flush := logging.New(logging.Options{
		Level:             cfg.LogLevel,
		Output:            os.Stderr,
		SentryDSN:         cfg.SentryDSN,
		SentryEnvironment: cfg.SentryEnvironment,
	})
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		flush()
		return nil, err
	}
	return &backend{
		pages: a.Pages,
		perms: a.Perms,
		migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, a.Pool, logger)
		},
		status: func(ctx context.Context) ([]migrationState, error) {
			status, err := database.Status(ctx, a.Pool)
			if err != nil {
				return nil, err
			}
			out := make([]migrationState, len(status))
			for i, s := range status {
				out[i] = migrationState{Version: s.Source.Version, State: string(s.State), AppliedAt: s.AppliedAt}
			}
			return out, nil
		},
		close: func() {
			a.Close()
			flush()
		},
	}, nil
}
