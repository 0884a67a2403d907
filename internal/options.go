package internal

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/stride/pkg/convert"
	"github.com/dmitrymomot/stride/pkg/flash"
	"github.com/dmitrymomot/stride/pkg/i18n"
)

// Option configures the application.
type Option func(*App)

// WithBeans registers action beans.
func WithBeans(beans ...*ActionBean) Option {
	return func(a *App) {
		a.beans = append(a.beans, beans...)
	}
}

// WithInterceptor adds an interceptor for the given stages, or for every
// stage when none are listed. Interceptors run in registration order,
// the first registered outermost.
//
//	stride.WithInterceptor(interceptors.Tracing(tp), stride.EventHandling, stride.ResolutionExecution)
func WithInterceptor(i Interceptor, stages ...Stage) Option {
	return func(a *App) {
		if i != nil {
			a.interceptors = append(a.interceptors, registeredInterceptor{interceptor: i, stages: stages})
		}
	}
}

// WithMiddleware adds global middleware. Middleware runs before the
// action is resolved, in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithLogger sets the logger used by the dispatcher and the binder.
//
//	stride.WithLogger(logger.New(cfg, stride.ActionExtractor(), stride.EventExtractor()))
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCatalog sets the message catalog for error messages and T. Without
// it the built-in English messages are used.
func WithCatalog(c *i18n.Catalog) Option {
	return func(a *App) {
		if c != nil {
			a.catalog = c
		}
	}
}

// WithConverters sets the converter registry used for binding.
//
//	reg := convert.NewRegistry()
//	convert.Register[Money](reg, moneyConverter)
//	stride.New(stride.WithConverters(reg))
func WithConverters(r *convert.Registry) Option {
	return func(a *App) {
		if r != nil {
			a.converters = r
		}
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled.
//
//	//go:embed public
//	var assets embed.FS
//
//	stride.WithStaticFiles("/static/", assets, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			a.errs = append(a.errs, fmt.Errorf("static files %q: %w", pattern, err))
			return
		}
		fileServer := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			fileServer.ServeHTTP(w, r)
		})
		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler sets the handler for errors returned from the
// pipeline. It receives an *HTTPError.
//
//	stride.WithErrorHandler(func(c stride.Context, err error) error {
//	    he := stride.AsHTTPError(err)
//	    return stride.Render(he.Code, pages.Error(he)).Execute(c)
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithValidationFailureHandler sets the response for failed validation
// that neither the bean nor a source page handled. The default answers
// 422 with the errors as JSON.
func WithValidationFailureHandler(h ValidationFailureHandler) Option {
	return func(a *App) {
		a.validationFailureHandler = h
	}
}

// WithFlashStore sets the store behind the flash scope. The App closes it.
func WithFlashStore(s flash.Store[*flash.Scope]) Option {
	return func(a *App) {
		a.flashStore = s
	}
}

// WithFlashTTL sets how long a flash scope waits for the next request.
func WithFlashTTL(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.flashTTL = d
		}
	}
}

// WithCookieSecret sets the secret that seals cookies and the
// _sourcePage and __fp fields. It must be at least 32 bytes.
func WithCookieSecret(secret string) Option {
	return func(a *App) {
		a.cookieSecret = secret
	}
}

// WithContextPath mounts the App under a path prefix, as when it sits
// behind a proxy at /app.
func WithContextPath(path string) Option {
	return func(a *App) {
		a.contextPath = path
	}
}

// WithAlwaysInvokeValidate runs default validation methods even when
// binding produced errors.
func WithAlwaysInvokeValidate() Option {
	return func(a *App) {
		a.alwaysInvokeValidate = true
	}
}

// WithMaxIndex caps the slice index a parameter name may address, such
// as items[42].qty. Larger indexes are reported as invalid values.
// Defaults to 10000.
func WithMaxIndex(n int) Option {
	return func(a *App) {
		if n >= 0 {
			a.maxIndex = n
		}
	}
}

// WithMaxForwards limits how many forwards one request may follow.
// Defaults to 8.
func WithMaxForwards(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.maxForwards = n
		}
	}
}
