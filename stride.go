package stride

import (
	"github.com/dmitrymomot/stride/internal"
)

// Core types re-exported from internal package.
type (
	// App owns the router, the action bean registry and the interceptor
	// chains. Create one with New and serve it with Run or as an
	// http.Handler.
	App = internal.App

	// Option configures the application.
	Option = internal.Option

	// Config holds environment driven settings. Load it with LoadConfig.
	Config = internal.Config

	// Context provides request access, typed parameters, validation
	// errors, messages and translation inside handlers.
	Context = internal.Context

	// ContextAware is implemented by beans that want the Context before
	// binding starts.
	ContextAware = internal.ContextAware

	// HandlerFunc is the signature used by middleware.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc around the whole dispatch.
	Middleware = internal.Middleware

	// ErrorHandler turns an error that escaped the lifecycle into a
	// response.
	ErrorHandler = internal.ErrorHandler

	// ValidationFailureHandler decides what to send when binding or
	// validation produced errors and the bean did not handle them.
	ValidationFailureHandler = internal.ValidationFailureHandler

	// ValidationErrorHandler is implemented by beans that handle their own
	// validation errors.
	ValidationErrorHandler = internal.ValidationErrorHandler

	// ValidationErrors holds field and global errors of one request.
	ValidationErrors = internal.ValidationErrors

	// TranslatorKey is the context key of the request translator.
	TranslatorKey = internal.TranslatorKey
)

// Action bean registration types.
type (
	// ActionBean is the registration of one bean type: its binding
	// pattern, events, hooks and binding policy.
	ActionBean = internal.ActionBean

	// BeanOption configures an ActionBean.
	BeanOption = internal.BeanOption

	// EventOption configures a single event.
	EventOption = internal.EventOption

	// HookOption configures a hook or a validation method.
	HookOption = internal.HookOption

	// ValidateWhen controls when a validation method runs.
	ValidateWhen = internal.ValidateWhen

	// Resolver maps request paths and names to action beans.
	Resolver = internal.Resolver
)

// Lifecycle types.
type (
	// Stage is one step of the execution lifecycle.
	Stage = internal.Stage

	// Interceptor wraps one or more lifecycle stages.
	Interceptor = internal.Interceptor

	// InterceptorFunc adapts a function to Interceptor.
	InterceptorFunc = internal.InterceptorFunc

	// StageFunc is the code run for a stage once all interceptors
	// proceeded.
	StageFunc = internal.StageFunc

	// ExecutionContext is the state of one pass through the lifecycle.
	ExecutionContext = internal.ExecutionContext

	// Extractor reads a value from the first source that has it.
	Extractor = internal.Extractor

	// ExtractorSource reads a value from the request.
	ExtractorSource = internal.ExtractorSource

	// ResponseWriter records the status written to the client.
	ResponseWriter = internal.ResponseWriter
)

// Resolution types.
type (
	// Resolution is what an event handler asks to send.
	Resolution = internal.Resolution

	// ResolutionFunc adapts a function to Resolution.
	ResolutionFunc = internal.ResolutionFunc

	// Component is anything that renders itself, such as a templ
	// component.
	Component = internal.Component

	// ForwardResolution dispatches another action bean in the same
	// request.
	ForwardResolution = internal.ForwardResolution

	// RedirectResolution sends a redirect, optionally carrying flash
	// scope.
	RedirectResolution = internal.RedirectResolution

	// StreamResolution copies a reader to the client.
	StreamResolution = internal.StreamResolution

	// RenderResolution renders a component.
	RenderResolution = internal.RenderResolution
)

// Error types.
type (
	// HTTPError is an error with an HTTP status code.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption
)

// RunOption configures the server runtime.
type RunOption = internal.RunOption

// Lifecycle stages in execution order.
const (
	RequestInit          = internal.RequestInit
	ActionBeanResolution = internal.ActionBeanResolution
	HandlerResolution    = internal.HandlerResolution
	BindingAndValidation = internal.BindingAndValidation
	CustomValidation     = internal.CustomValidation
	EventHandling        = internal.EventHandling
	ResolutionExecution  = internal.ResolutionExecution
	RequestComplete      = internal.RequestComplete
)

// When a validation method runs.
const (
	ValidateDefault  = internal.ValidateDefault
	ValidateAlways   = internal.ValidateAlways
	ValidateNoErrors = internal.ValidateNoErrors
)

// Sentinel errors.
var (
	ErrActionNotFound   = internal.ErrActionNotFound
	ErrNoHandler        = internal.ErrNoHandler
	ErrMultipleEvents   = internal.ErrMultipleEvents
	ErrMethodNotAllowed = internal.ErrMethodNotAllowed
	ErrAmbiguousName    = internal.ErrAmbiguousName
	ErrForwardLoop      = internal.ErrForwardLoop
	ErrRegistration     = internal.ErrRegistration
)

// Application.
var (
	// New creates an application and registers its action beans.
	// A registration error is returned as is.
	New = internal.New

	// MustNew is like New but panics on error.
	MustNew = internal.MustNew

	// LoadConfig reads Config from environment variables.
	LoadConfig = internal.LoadConfig
)

// Application options.
var (
	WithConfig                   = internal.WithConfig
	WithBeans                    = internal.WithBeans
	WithInterceptor              = internal.WithInterceptor
	WithMiddleware               = internal.WithMiddleware
	WithLogger                   = internal.WithLogger
	WithCatalog                  = internal.WithCatalog
	WithConverters               = internal.WithConverters
	WithStaticFiles              = internal.WithStaticFiles
	WithErrorHandler             = internal.WithErrorHandler
	WithValidationFailureHandler = internal.WithValidationFailureHandler
	WithFlashStore               = internal.WithFlashStore
	WithFlashTTL                 = internal.WithFlashTTL
	WithCookieSecret             = internal.WithCookieSecret
	WithContextPath              = internal.WithContextPath
	WithAlwaysInvokeValidate     = internal.WithAlwaysInvokeValidate
	WithMaxForwards              = internal.WithMaxForwards
	WithMaxIndex                 = internal.WithMaxIndex
)

// Run options.
var (
	Logger          = internal.Logger
	ShutdownTimeout = internal.ShutdownTimeout
	StartupHook     = internal.StartupHook
	ShutdownHook    = internal.ShutdownHook
	WithContext     = internal.WithContext
	Listener        = internal.Listener
)

// Bean and event options.
var (
	Methods             = internal.Methods
	DontValidate        = internal.DontValidate
	DontBind            = internal.DontBind
	IgnoreBindingErrors = internal.IgnoreBindingErrors
	On                  = internal.On
	Priority            = internal.Priority
	When                = internal.When
	BindingPolicy       = internal.BindingPolicy
	StrictBinding       = internal.StrictBinding
	SessionScope        = internal.SessionScope
	Name                = internal.Name
)

// Lifecycle helpers.
var (
	Stages               = internal.Stages
	ExecutionContextFrom = internal.ExecutionContextFrom
	NewResolver          = internal.NewResolver
	NewResponseWriter    = internal.NewResponseWriter
)

// Extractors.
var (
	NewExtractor    = internal.NewExtractor
	FromHeader      = internal.FromHeader
	FromParam       = internal.FromParam
	FromCookie      = internal.FromCookie
	ActionExtractor = internal.ActionExtractor
	EventExtractor  = internal.EventExtractor
	StageExtractor  = internal.StageExtractor
)

// Resolutions.
var (
	Forward   = internal.Forward
	Redirect  = internal.Redirect
	Stream    = internal.Stream
	Render    = internal.Render
	JSON      = internal.JSON
	Text      = internal.Text
	NoContent = internal.NoContent
	Error     = internal.Error
)

// Errors.
var (
	NewHTTPError  = internal.NewHTTPError
	AsHTTPError   = internal.AsHTTPError
	WithCause     = internal.WithCause
	WithErrorCode = internal.WithErrorCode
)

// Bean registers the action bean type T bound to pattern.
// The pattern may hold {name} parameters and an {$event} placeholder.
//
// Example:
//
//	stride.Bean[CartAction]("/cart/{id}/{$event}",
//	    stride.DefaultEvent("view", (*CartAction).View),
//	    stride.Event("add", (*CartAction).Add, stride.Methods(http.MethodPost)),
//	)
func Bean[T any](pattern string, opts ...BeanOption) *ActionBean {
	return internal.Bean[T](pattern, opts...)
}

// Event registers an event handler of bean T.
func Event[T any](name string, fn func(*T, Context) (Resolution, error), opts ...EventOption) BeanOption {
	return internal.Event(name, fn, opts...)
}

// DefaultEvent registers the event used when the request names none.
func DefaultEvent[T any](name string, fn func(*T, Context) (Resolution, error), opts ...EventOption) BeanOption {
	return internal.DefaultEvent(name, fn, opts...)
}

// ValidationMethod registers custom validation on bean T. It runs after
// binding, before the event handler.
//
// Example:
//
//	stride.ValidationMethod(func(a *SignupAction, c stride.Context) error {
//	    if a.Password != a.Confirm {
//	        c.ValidationErrors().Add("confirm", validator.NewMessage("confirm", "passwords differ"))
//	    }
//	    return nil
//	}, stride.On("save"))
func ValidationMethod[T any](fn func(*T, Context) error, opts ...HookOption) BeanOption {
	return internal.ValidationMethod(fn, opts...)
}

// Before registers a hook on bean T run before stage.
func Before[T any](stage Stage, fn func(*T, Context) (Resolution, error), opts ...HookOption) BeanOption {
	return internal.Before(stage, fn, opts...)
}

// After registers a hook on bean T run after stage.
func After[T any](stage Stage, fn func(*T, Context) (Resolution, error), opts ...HookOption) BeanOption {
	return internal.After(stage, fn, opts...)
}

// ContextValue returns the value stored under key, or the zero value of T.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param converts the named request parameter to T with the registered
// type converters.
//
// Example:
//
//	id, err := stride.Param[int64](c, "id")
func Param[T any](c Context, name string) (T, error) {
	return internal.Param[T](c, name)
}

// ParamDefault is like Param but returns def when the parameter is
// missing or does not convert.
func ParamDefault[T any](c Context, name string, def T) T {
	return internal.ParamDefault(c, name, def)
}
