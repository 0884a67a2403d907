package internal

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/stride/pkg/urlbinding"
)

var (
	ErrActionNotFound   = errors.New("stride: no action bean bound to path")
	ErrNoHandler        = errors.New("stride: no event handler for request")
	ErrMultipleEvents   = errors.New("stride: more than one event submitted")
	ErrMethodNotAllowed = errors.New("stride: event does not accept request method")
	ErrAmbiguousName    = errors.New("stride: several action beans share the name")
	ErrForwardLoop      = errors.New("stride: too many forwards")
	ErrRegistration     = errors.New("stride: invalid action bean registration")
)

// HTTPError is an error with an HTTP status. Errors returned from the
// pipeline are converted to it before reaching the ErrorHandler.
type HTTPError struct {
	// Err is the cause, for logging only.
	Err error `json:"-"`
	// Message is safe to show to the user.
	Message string `json:"message"`
	// ErrorCode is an application-specific code for clients.
	ErrorCode string `json:"code,omitempty"`
	Code      int    `json:"-"`
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return e.Err }

// StatusText returns the standard text for the status code.
func (e *HTTPError) StatusText() string { return http.StatusText(e.Code) }

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// WithCause records the underlying error.
func WithCause(err error) HTTPErrorOption {
	return func(e *HTTPError) { e.Err = err }
}

// WithErrorCode sets an application-specific code.
func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) { e.ErrorCode = code }
}

// NewHTTPError creates an HTTPError. An empty message uses the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AsHTTPError maps err to an HTTPError. Pipeline sentinels get their
// status; anything unknown becomes a 500 that hides the cause.
func AsHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, ErrActionNotFound), errors.Is(err, ErrNoHandler),
		errors.Is(err, ErrAmbiguousName), errors.Is(err, urlbinding.ErrConflict):
		return NewHTTPError(http.StatusNotFound, "", WithCause(err))
	case errors.Is(err, ErrMethodNotAllowed):
		return NewHTTPError(http.StatusMethodNotAllowed, "", WithCause(err))
	case errors.Is(err, ErrMultipleEvents):
		return NewHTTPError(http.StatusBadRequest, "", WithCause(err))
	}
	return NewHTTPError(http.StatusInternalServerError, "", WithCause(err))
}
