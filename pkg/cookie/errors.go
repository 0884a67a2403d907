package cookie

import "errors"

var (
	ErrNotFound    = errors.New("cookie: not found")
	ErrShortSecret = errors.New("cookie: secret must be at least 32 bytes")
	ErrTampered    = errors.New("cookie: value was tampered with")
)
