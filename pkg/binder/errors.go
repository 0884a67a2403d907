package binder

import "errors"

var ErrInvalidBean = errors.New("binder: bean must be a non-nil pointer to a struct")

var errDenied = errors.New("binder: property is not bindable")
