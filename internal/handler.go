package internal

// HandlerFunc is the signature of the function middleware wraps.
// Returning a non-nil error hands the error to the App's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps the dispatcher to add cross-cutting concerns such as
// request IDs or language detection. It runs before an action is resolved.
//
//	func Auth(next stride.HandlerFunc) stride.HandlerFunc {
//	    return func(c stride.Context) error {
//	        if !loggedIn(c) {
//	            return stride.Redirect("/login").Execute(c)
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from the dispatch pipeline.
type ErrorHandler func(Context, error) error

// ValidationFailureHandler decides the response for a request whose
// validation failed and that neither the bean nor a source page handled.
type ValidationFailureHandler func(Context, ValidationErrors) (Resolution, error)

// ValidationErrorHandler is implemented by action beans that want to pick
// the response for their own validation failures. Returning a nil
// Resolution falls back to the default handling.
type ValidationErrorHandler interface {
	HandleValidationErrors(c Context, errs ValidationErrors) (Resolution, error)
}

// ContextAware is implemented by action beans that keep the request
// context. SetContext is called right after the bean is created.
type ContextAware interface {
	SetContext(c Context)
}
