package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/stride/pkg/binder"
	"github.com/dmitrymomot/stride/pkg/binding"
	"github.com/dmitrymomot/stride/pkg/convert"
	"github.com/dmitrymomot/stride/pkg/cookie"
	"github.com/dmitrymomot/stride/pkg/flash"
	"github.com/dmitrymomot/stride/pkg/i18n"
	"github.com/dmitrymomot/stride/pkg/logger"
	"github.com/dmitrymomot/stride/pkg/propexpr"
	"github.com/dmitrymomot/stride/pkg/validator"
)

const (
	defaultMaxMemory      = 32 << 20 // 32MB
	defaultMaxForwards    = 8
	defaultSessionBeanTTL = 30 * time.Minute
	dialTimeout           = 5 * time.Second
)

// App dispatches requests to action beans. It owns the router, the bean
// registry, the interceptor chains and the stores behind the flash scope
// and session-scoped beans. App is immutable after New.
type App struct {
	router                   chi.Router
	resolver                 *Resolver
	binder                   *binder.Binder
	converters               *convert.Registry
	chains                   *interceptorChains
	logger                   *slog.Logger
	catalog                  *i18n.Catalog
	cookies                  *cookie.Manager
	flash                    *flash.Manager
	flashStore               flash.Store[*flash.Scope]
	sessionBeans             *flash.Memory[any]
	sessionGroup             singleflight.Group
	redis                    redis.UniversalClient
	errorHandler             ErrorHandler
	validationFailureHandler ValidationFailureHandler
	beans                    []*ActionBean
	interceptors             []registeredInterceptor
	middlewares              []Middleware
	staticRoutes             []staticRoute
	errs                     []error
	contextPath              string
	cookieSecret             string
	redisURL                 string
	flashTTL                 time.Duration
	sessionBeanTTL           time.Duration
	maxMemory                int64
	maxForwards              int
	maxIndex                 int
	closeOnce                sync.Once
	cookieSecure             bool
	alwaysInvokeValidate     bool
	debug                    bool
}

type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates an App. Registration problems of all beans are reported
// together.
//
//	app, err := stride.New(
//	    stride.WithLogger(log),
//	    stride.WithBeans(
//	        stride.Bean[UserAction]("/user/{id}/{$event}", ...),
//	    ),
//	    stride.WithInterceptor(interceptors.Logging(log)),
//	)
func New(opts ...Option) (*App, error) {
	a := &App{
		router:         chi.NewRouter(),
		resolver:       NewResolver(),
		logger:         logger.NewNope(),
		flashTTL:       flash.DefaultTTL,
		sessionBeanTTL: defaultSessionBeanTTL,
		maxMemory:      defaultMaxMemory,
		maxForwards:    defaultMaxForwards,
		maxIndex:       propexpr.DefaultMaxIndex,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.init(); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.setupRoutes()
	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *App {
	a, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *App) init() error {
	if len(a.errs) > 0 {
		return errors.Join(a.errs...)
	}
	a.contextPath = strings.TrimSuffix(a.contextPath, "/")

	if a.catalog == nil {
		catalog, err := i18n.New()
		if err != nil {
			return err
		}
		a.catalog = catalog
	}

	if a.cookieSecret == "" {
		a.logger.Warn("no cookie secret configured; sealed values will not survive a restart")
	}
	codec, err := cookie.NewCodec(a.cookieSecret)
	if err != nil {
		return err
	}
	cookiePath := a.contextPath
	if cookiePath == "" {
		cookiePath = "/"
	}
	a.cookies = cookie.New(codec, cookie.WithPath(cookiePath), cookie.WithSecure(a.cookieSecure))

	if err := a.registerBeans(); err != nil {
		return err
	}

	if err := a.initFlash(); err != nil {
		return err
	}

	chain := append([]registeredInterceptor{{interceptor: hookInterceptor{}}}, a.interceptors...)
	a.chains = buildChains(chain)

	if a.errorHandler == nil {
		a.errorHandler = a.defaultErrorHandler
	}
	if a.validationFailureHandler == nil {
		a.validationFailureHandler = defaultValidationFailureHandler
	}
	return nil
}

// registerBeans indexes the beans and compiles their binding rules so
// that bad globs and validate tags fail at startup.
func (a *App) registerBeans() error {
	if a.converters == nil {
		a.converters = convert.NewRegistry()
	}
	policies := binding.NewManager(binding.WithDeniedTypes(reflect.TypeFor[Context]()))

	var errs []error
	session := false
	for _, b := range a.beans {
		if err := a.resolver.Add(b); err != nil {
			errs = append(errs, err)
			continue
		}
		session = session || b.session
		if b.policy != nil {
			if err := policies.Register(b.typ, *b.policy); err != nil {
				errs = append(errs, fmt.Errorf("%w: %w", ErrRegistration, err))
			}
			continue
		}
		if _, err := validator.For(b.typ); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrRegistration, b.typ, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.binder = binder.New(
		binder.WithConverters(a.converters),
		binder.WithPolicies(policies),
		binder.WithLogger(a.logger),
		binder.WithMaxIndex(a.maxIndex),
	)
	if session {
		a.sessionBeans = flash.NewMemory[any](flash.WithTTL(a.sessionBeanTTL))
	}
	for _, b := range a.resolver.Beans() {
		a.logger.Debug("action bean registered",
			slog.String("bean", b.name),
			slog.String("binding", b.pattern),
			slog.Any("events", b.eventOrder),
		)
	}
	return nil
}

// initFlash picks the flash store: the one given by WithFlashStore, Redis
// when a URL is configured, memory otherwise.
func (a *App) initFlash() error {
	if a.flashStore == nil && a.redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		client, err := flash.Dial(ctx, a.redisURL)
		if err != nil {
			return err
		}
		a.redis = client
		a.flashStore = flash.NewRedis[*flash.Scope](client, nil, flash.WithRedisTTL(a.flashTTL))
	}
	if a.flashStore == nil {
		a.flashStore = flash.NewMemory[*flash.Scope](flash.WithTTL(a.flashTTL))
	}
	a.flash = flash.NewManager(a.flashStore, a.flashTTL)
	return nil
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Resolver returns the bean registry.
func (a *App) Resolver() *Resolver {
	return a.resolver
}

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close releases the flash store, the session bean store and a Redis
// client opened from the configured URL. It is safe to call twice.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.flashStore != nil {
			errs = append(errs, a.flashStore.Close())
		}
		if a.sessionBeans != nil {
			errs = append(errs, a.sessionBeans.Close())
		}
		if a.redis != nil {
			errs = append(errs, a.redis.Close())
		}
	})
	return errors.Join(errs...)
}

func (a *App) setupRoutes() {
	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}
	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}
	a.router.Handle("/*", http.HandlerFunc(a.serveAction))
}

// adaptMiddleware converts a Middleware to chi middleware. Values stored
// with Context.Set travel to the next handler on the request.
func (a *App) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := mw(func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			})
			c := newContext(w, r, a)
			if err := wrapped(c); err != nil {
				a.handleError(c, err)
			}
		})
	}
}

// defaultErrorHandler writes the error's message with its status. In
// debug mode the cause is appended.
func (a *App) defaultErrorHandler(c Context, err error) error {
	he := AsHTTPError(err)
	msg := he.Message
	if a.debug && he.Err != nil {
		msg += ": " + he.Err.Error()
	}
	http.Error(c.Response(), msg, he.Code)
	return nil
}
