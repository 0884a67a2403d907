package urlbinding

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse    = errors.New("urlbinding: invalid pattern")
	ErrConflict = errors.New("urlbinding: conflicting bindings")
	ErrNotFound = errors.New("urlbinding: no binding matches")
)

// ConflictError reports a path that two or more bindings claim equally.
type ConflictError struct {
	Path     string
	Bindings []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("urlbinding: path %q matches %s", e.Path, strings.Join(e.Bindings, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func parseError(pattern, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrParse, pattern, reason)
}
