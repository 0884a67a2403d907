package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig enables forwarding of warnings and errors to Sentry.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

// NewWithSentry creates a logger like New that also reports to Sentry.
// Error records become Sentry issues; warnings are kept as breadcrumb
// logs. Without a DSN, or when the SDK fails to start, it degrades to New.
func NewWithSentry(cfg Config, sc SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	base := baseHandler(cfg)
	if sc.DSN == "" {
		return slog.New(NewContextHandler(base, extractors...))
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         sc.DSN,
		Environment: sc.Environment,
		EnableLogs:  true,
	})
	if err != nil {
		slog.New(base).Error("sentry init failed", slog.String("error", err.Error()))
		return slog.New(NewContextHandler(base, extractors...))
	}

	reporter := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(NewContextHandler(fanout{base, reporter}, extractors...))
}
