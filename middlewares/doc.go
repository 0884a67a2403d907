// Package middlewares provides HTTP middleware for stride applications.
//
// Middleware runs before an action bean is resolved, so it sees every
// request, static files excepted. Register it with stride.WithMiddleware.
//
// # Request ID
//
// RequestID assigns an ID to each request, keeping one sent by a proxy.
// RequestIDExtractor puts it on every log record:
//
//	log := logger.New(logger.Config{}, middlewares.RequestIDExtractor())
//	app, err := stride.New(
//	    stride.WithLogger(log),
//	    stride.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover turns panics into a *PanicError for the ErrorHandler:
//
//	stride.WithErrorHandler(func(c stride.Context, err error) error {
//	    if middlewares.IsPanicError(err) {
//	        return stride.Text(http.StatusInternalServerError, "sorry").Execute(c)
//	    }
//	    ...
//	})
//
// # I18n
//
// I18n picks the language of the request from the "lang" parameter, the
// "lang" cookie or Accept-Language, and installs a Translator for it.
// Binding parses numbers and dates in that language's format and
// validation messages are looked up in the catalog:
//
//	catalog := i18n.MustNew(i18n.WithYAMLDir(locales))
//	stride.WithCatalog(catalog),
//	stride.WithMiddleware(middlewares.I18n(catalog)),
//
// # CORS
//
// CORS answers preflight requests and adds CORS headers for allowed
// origins:
//
//	middlewares.CORS(
//	    middlewares.WithAllowOrigins("https://app.example.com"),
//	    middlewares.WithAllowCredentials(),
//	)
//
// # Order
//
//	stride.WithMiddleware(
//	    middlewares.CORS(),
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	    middlewares.I18n(catalog),
//	)
package middlewares
