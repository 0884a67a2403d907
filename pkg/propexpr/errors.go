package propexpr

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned when an expression string is malformed.
	ErrParse = errors.New("propexpr: malformed expression")

	// ErrNoSuchProperty is returned when a node names a property the type does not have.
	ErrNoSuchProperty = errors.New("propexpr: no such property")

	// ErrEvaluation is returned when a value cannot be read or written through the expression.
	ErrEvaluation = errors.New("propexpr: evaluation failed")

	// ErrNilBean is returned when evaluation starts from a nil bean.
	ErrNilBean = errors.New("propexpr: bean must be a non-nil pointer")
)

// ParseError describes why an expression could not be parsed.
type ParseError struct {
	Expression string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("propexpr: cannot parse %q: %s", e.Expression, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// PropertyError reports a node that could not be resolved against a type.
// Err is set when the property exists but the node cannot address it,
// such as an index beyond the limit; it wraps ErrEvaluation.
type PropertyError struct {
	Err        error
	Expression string
	Property   string
	Type       string
}

func (e *PropertyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("propexpr: %s at %q (expression %q): %v", e.Type, e.Property, e.Expression, e.Err)
	}
	return fmt.Sprintf("propexpr: %s has no property %q (expression %q)", e.Type, e.Property, e.Expression)
}

func (e *PropertyError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNoSuchProperty
}
