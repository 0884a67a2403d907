// Package logger builds slog loggers for the dispatcher.
//
// [New] returns a JSON (or text) logger whose handler, a [ContextHandler],
// copies request-scoped values out of the context into every record:
//
//	log := logger.New(logger.Config{Level: slog.LevelDebug},
//	    logger.StringExtractor("request_id", middlewares.GetRequestID),
//	)
//	log.InfoContext(ctx, "event handled")
//
// [NewWithSentry] additionally reports errors to Sentry and falls back to
// plain logging when no DSN is configured. [NewNope] discards output and
// is the default for components constructed without a logger.
//
// Config carries env tags (LOG_LEVEL, LOG_FORMAT) for use with
// github.com/caarlos0/env.
package logger
