package flash

import "errors"

var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("flash: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("flash: store closed")

	ErrMarshal   = errors.New("flash: failed to marshal value")
	ErrUnmarshal = errors.New("flash: failed to unmarshal value")
)
