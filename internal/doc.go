// Package internal provides the core types and implementation for the stride framework.
//
// This package is internal and should not be used directly. Import "github.com/dmitrymomot/stride"
// instead, which re-exports the public API.
//
// # Core Types
//
//   - App: owns the router, the bean registry and the interceptor chains
//   - ActionBean: the registration of a bean type, built with Bean
//   - Context: request access, parameters, validation errors, messages and i18n
//   - ExecutionContext: the state of one pass through the lifecycle
//   - Interceptor: wraps lifecycle stages
//   - Resolution: what to send once the event handler is done
//
// # Action Beans
//
// An action bean is a plain struct. Request parameters are bound to its
// exported fields, then one of its events handles the request:
//
//	type RegisterAction struct {
//	    User struct {
//	        Email string `validate:"required,email"`
//	        Age   int    `validate:"min=18"`
//	    }
//	}
//
//	func (a *RegisterAction) Form(c internal.Context) (internal.Resolution, error) {
//	    return internal.Render(http.StatusOK, pages.Register(a)), nil
//	}
//
//	func (a *RegisterAction) Save(c internal.Context) (internal.Resolution, error) {
//	    c.AddMessage("Welcome!")
//	    return internal.Redirect("/home").SeeOther(), nil
//	}
//
//	internal.Bean[RegisterAction]("/register/{$event}",
//	    internal.DefaultEvent("form", (*RegisterAction).Form, internal.DontValidate()),
//	    internal.Event("save", (*RegisterAction).Save, internal.Methods(http.MethodPost)),
//	)
//
// # Lifecycle
//
// Every request runs through the stages RequestInit, ActionBeanResolution,
// HandlerResolution, BindingAndValidation, CustomValidation, EventHandling,
// ResolutionExecution and RequestComplete. Interceptors registered with
// WithInterceptor wrap the stages they list; the bean's Before and After
// hooks always run outermost. A resolution returned from any stage skips
// the remaining ones up to ResolutionExecution. RequestComplete always
// runs and its result is ignored.
//
// # Validation Errors
//
// Binding and validation failures are collected in ValidationErrors,
// never returned as errors. When any remain after custom validation the
// dispatcher asks, in order: the bean (ValidationErrorHandler), the
// sealed _sourcePage parameter, and the App's ValidationFailureHandler.
//
// # Errors
//
// Errors returned from handlers, hooks and interceptors are mapped to an
// *HTTPError by AsHTTPError and passed to the ErrorHandler.
//
// # Server Runtime
//
//	err := app.Run(":8080", internal.ShutdownHook(db.Close))
//
// Run handles SIGINT and SIGTERM with a graceful shutdown and closes the
// App's stores afterwards.
package internal
