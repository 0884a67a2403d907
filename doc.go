// Package stride is an action based web framework. Requests are mapped to
// action beans: plain structs whose exported fields receive the request
// parameters and whose methods handle events.
//
// # Quick Start
//
//	type GreetAction struct {
//	    Name string `validate:"required"`
//	}
//
//	func (a *GreetAction) Hello(c stride.Context) (stride.Resolution, error) {
//	    return stride.Text(http.StatusOK, "hello "+a.Name), nil
//	}
//
//	func main() {
//	    app := stride.MustNew(
//	        stride.WithBeans(stride.Bean[GreetAction]("/greet/{name}",
//	            stride.DefaultEvent("hello", (*GreetAction).Hello),
//	        )),
//	    )
//	    if err := app.Run(":8080"); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Events
//
// The event of a request comes from, in order: a forward naming one, the
// _eventName parameter, the {$event} part of the binding pattern or a
// submitted parameter named after an event (the name of a submit button),
// and finally the default event. Naming two different events is a bad
// request. Unknown event names are ignored.
//
// # Binding
//
// Parameter names are property expressions: "user.address.city",
// "items[2].qty" or "prefs['theme']". Nested structs, maps and slices are
// created on demand. Type conversion goes through the converter registry,
// see [github.com/dmitrymomot/stride/pkg/convert]. Fields marked with the
// validate tag are checked after binding, and ValidationMethod hooks run
// after that.
//
// Binding is restricted by policy. By default every exported field is
// bindable. StrictBinding limits binding to the listed expressions.
//
// # Lifecycle
//
// Each request passes through the stages RequestInit, ActionBeanResolution,
// HandlerResolution, BindingAndValidation, CustomValidation, EventHandling,
// ResolutionExecution and RequestComplete. Interceptors wrap stages:
//
//	stride.WithInterceptor(stride.InterceptorFunc(func(ec *stride.ExecutionContext) (stride.Resolution, error) {
//	    if ec.Context().Request().Header.Get("X-Token") == "" {
//	        return stride.Error(http.StatusUnauthorized, "token required"), nil
//	    }
//	    return ec.Proceed()
//	}), stride.HandlerResolution)
//
// Returning a Resolution without proceeding skips the rest of the
// lifecycle up to RequestComplete, which always runs.
//
// # Resolutions
//
// Event handlers return a Resolution: Forward, Redirect, Render, Stream,
// JSON, Text, NoContent or Error. Redirect can carry the bean and its
// messages to the next request through the flash scope.
//
// # Middleware
//
// Middleware wraps the whole dispatch, see the middlewares package for
// request IDs, panic recovery, CORS and language selection. Ready made
// interceptors for logging and tracing live in the interceptors package.
package stride
