package internal

import (
	"reflect"

	"github.com/dmitrymomot/stride/pkg/convert"
)

var fallbackConverters = convert.NewRegistry()

// ContextValue returns the value stored under key when it has type T.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param converts a request parameter to T with the App's converters and
// the request's locale format. A missing parameter yields the zero value
// and no error.
//
//	id, err := stride.Param[uuid.UUID](c, "id")
func Param[T any](c Context, name string) (T, error) {
	var zero T
	raw := c.Param(name)
	if raw == "" {
		return zero, nil
	}
	reg := fallbackConverters
	if rc, ok := c.(*requestContext); ok && rc.app.converters != nil {
		reg = rc.app.converters
	}
	v, err := reg.Convert(raw, reflect.TypeFor[T](), c.Format())
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, convert.ErrNoConverter
	}
	return out, nil
}

// ParamDefault is like Param but returns def when the parameter is
// missing or does not convert.
func ParamDefault[T any](c Context, name string, def T) T {
	v, err := Param[T](c, name)
	if err != nil || c.Param(name) == "" {
		return def
	}
	return v
}
