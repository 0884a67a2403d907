package interceptors

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/stride/internal"
)

type dispatchLogKey struct{}

// dispatchLog collects what the summary line needs.
type dispatchLog struct {
	ec      *internal.ExecutionContext
	started time.Time
	err     error
}

// LoggingOption configures the Logging interceptor.
type LoggingOption func(*loggingConfig)

type loggingConfig struct {
	stageLevel slog.Level
	stages     bool
}

// WithStageLogs also logs every lifecycle stage with its duration at
// level.
func WithStageLogs(level slog.Level) LoggingOption {
	return func(cfg *loggingConfig) {
		cfg.stages = true
		cfg.stageLevel = level
	}
}

// Logging returns an interceptor that writes one line per dispatch once
// RequestComplete ran: the action, the event, the status written so far
// and the duration. Dispatches that failed are logged at error level with
// the first error a stage returned. Register it for every stage:
//
//	stride.WithInterceptor(interceptors.Logging(log))
func Logging(log *slog.Logger, opts ...LoggingOption) internal.Interceptor {
	cfg := &loggingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
		c := ec.Context()
		stage := ec.Stage()

		if stage == internal.RequestInit {
			c.Set(dispatchLogKey{}, &dispatchLog{ec: ec, started: time.Now()})
		}
		dl, ok := c.Get(dispatchLogKey{}).(*dispatchLog)
		if ok && dl.ec != ec {
			dl, ok = nil, false
		}

		start := time.Now()
		res, err := ec.Proceed()
		if cfg.stages {
			log.Log(c, cfg.stageLevel, "stage done",
				slog.String("stage", stage.String()),
				slog.Duration("duration", time.Since(start)),
			)
		}
		if err != nil && ok && dl.err == nil {
			dl.err = err
		}

		if stage != internal.RequestComplete || !ok {
			return res, err
		}

		attrs := []any{
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.String("action", ec.BeanName()),
			slog.String("event", ec.Event()),
			slog.Int("status", c.ResponseWriter().Status()),
			slog.Duration("duration", time.Since(dl.started)),
		}
		if ec.Forwarded() {
			attrs = append(attrs, slog.Bool("forwarded", true))
		}
		if dl.err != nil {
			attrs = append(attrs, slog.String("error", dl.err.Error()))
			log.ErrorContext(c, "action failed", attrs...)
		} else {
			log.InfoContext(c, "action dispatched", attrs...)
		}
		return res, err
	})
}
