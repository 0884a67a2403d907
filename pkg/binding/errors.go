package binding

import "errors"

var (
	ErrInvalidGlob = errors.New("binding: invalid property glob")
	ErrMetadata    = errors.New("binding: cannot read validation metadata")
)
