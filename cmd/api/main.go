// Package main is the entry point for the desk API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/osama1998H/frappe/internal/app"
	"github.com/osama1998H/frappe/internal/config"
	"github.com/osama1998H/frappe/internal/database"
	"github.com/osama1998H/frappe/internal/handler"
	"github.com/osama1998H/frappe/internal/logging"
	"github.com/osama1998H/frappe/internal/middleware"
	"github.com/osama1998H/frappe/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON lines on stdout; warnings and errors also go to Sentry when
	// SENTRY_DSN is set.
	logger, flush := logging.New(logging.Options{
		Level:             cfg.LogLevel,
		SentryDSN:         cfg.SentryDSN,
		SentryEnvironment: cfg.SentryEnvironment,
	}, logging.RequestID, logging.User)
	defer flush()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server error", "error", err)
		flush()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	// --- Database ---------------------------------------------------------
	// Connect retries until Postgres answers, which matters when the server
	// and the database start together under compose.
	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	slog.Info("database connection established")

	if err := database.Migrate(ctx, a.Pool, logger); err != nil {
		return err
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → MaxBodySize.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srvHandler := handler.NewServer(a.Pages, a.Perms, a.Meta, a.Pool, spec.OpenAPI)
	srvHandler.Routes(r, middleware.NewAuthenticator(a.Repos.Users, a.Languages, logger))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "developer_mode", cfg.DeveloperMode, "cache", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
