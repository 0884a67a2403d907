package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultAddress = ":8080"

// Server limits.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Run serves the App on addr and blocks until the base context is
// cancelled or the process receives SIGINT or SIGTERM. Startup hooks run
// before the listener opens. On shutdown the server drains, the shutdown
// hooks run and the App is closed.
//
//	err := app.Run(":8080", stride.ShutdownHook(db.Close))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	ctx, cancel := signal.NotifyContext(cfg.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, hook := range cfg.startupHooks {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("startup hook: %w", err)
		}
	}

	ln := cfg.listener
	if ln == nil {
		if addr == "" {
			addr = defaultAddress
		}
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
	}
	return a.serve(ctx, ln, cfg)
}

func (a *App) newServer(log *slog.Logger) *http.Server {
	return &http.Server{
		Handler:           a,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
}

// serve accepts connections on ln until ctx is done.
func (a *App) serve(ctx context.Context, ln net.Listener, cfg *runConfig) error {
	log := cfg.logger
	server := a.newServer(log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info("server starting",
		slog.String("address", ln.Addr().String()),
		slog.Int("beans", len(a.resolver.Beans())),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return a.shutdown(server, errCh, cfg)
}

// shutdown drains server, then runs the shutdown hooks and closes the
// App. All of it shares one timeout.
func (a *App) shutdown(server *http.Server, serveErr <-chan error, cfg *runConfig) error {
	log := cfg.logger
	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := <-serveErr; err != nil {
		errs = append(errs, err)
	}
	for _, hook := range cfg.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
		log.Error("closing stores failed", slog.Any("error", err))
	}

	if len(errs) > 0 {
		log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}
	log.Info("shutdown completed")
	return nil
}
