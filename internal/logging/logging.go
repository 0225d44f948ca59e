// Package logging builds the process logger: JSON lines on stdout, with
// warnings and errors also forwarded to Sentry when a DSN is configured.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/osama1998H/frappe/internal/middleware"
)

// Options configures New.
type Options struct {
	// Level is parsed with slog.Level.UnmarshalText; unknown values mean info.
	Level string
	// Output defaults to os.Stdout.
	Output io.Writer

	SentryDSN         string
	SentryEnvironment string
}

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// New returns the process logger and a flush func to call before exit.
// Without a DSN, or when Sentry fails to initialize, only the JSON handler
// is used.
func New(opts Options, extractors ...ContextExtractor) (*slog.Logger, func()) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = slog.LevelInfo
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	stdout := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	noop := func() {}

	if opts.SentryDSN == "" {
		return slog.New(newDecorator(stdout, extractors...)), noop
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.SentryDSN,
		Environment: opts.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdout).Error("failed to initialize Sentry", "error", err)
		return slog.New(newDecorator(stdout, extractors...)), noop
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	flush := func() { sentry.Flush(2 * time.Second) }
	return slog.New(newDecorator(newMultiHandler(stdout, sentryHandler), extractors...)), flush
}

// RequestID adds the chi request ID, when present.
func RequestID(ctx context.Context) (slog.Attr, bool) {
	id := chimiddleware.GetReqID(ctx)
	return slog.String("request_id", id), id != ""
}

// User adds the authenticated user, when present.
func User(ctx context.Context) (slog.Attr, bool) {
	auth, ok := middleware.AuthFromContext(ctx)
	return slog.String("user", auth.User), ok && auth.User != ""
}
