package convert

import (
	"encoding"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stride/pkg/i18n"
)

// Converter turns one request parameter value into a value of type target.
// Failures are reported as *Error so they can be localized.
type Converter interface {
	Convert(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error)

func (fn ConverterFunc) Convert(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error) {
	return fn(input, target, f)
}

// Enumerated is implemented by enum-like types that list their valid
// values. Input is matched case-insensitively. For string kinds the value
// itself is the result, for integer kinds its position in the list.
type Enumerated interface {
	EnumValues() []string
}

// TagName is the struct tag that selects a named converter for a field.
const TagName = "convert"

// Registry resolves converters by target type. Lookups are cached per
// type; registering a converter drops the cache.
type Registry struct {
	mu    sync.RWMutex
	types map[reflect.Type]Converter
	named map[string]Converter
	kinds map[reflect.Kind]Converter
	cache sync.Map // reflect.Type -> lookupResult
}

type lookupResult struct {
	c Converter
}

// Option configures a Registry.
type Option func(*Registry)

// WithConverter registers c for the exact type t.
func WithConverter(t reflect.Type, c Converter) Option {
	return func(r *Registry) { r.types[t] = c }
}

// WithNamed registers a converter selectable with `convert:"name"`.
func WithNamed(name string, c Converter) Option {
	return func(r *Registry) { r.named[name] = c }
}

// NewRegistry creates a Registry with the built-in converters.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types: map[reflect.Type]Converter{
			reflect.TypeFor[time.Time]():     ConverterFunc(convertTime),
			reflect.TypeFor[time.Duration](): ConverterFunc(convertDuration),
			reflect.TypeFor[uuid.UUID]():     ConverterFunc(convertUUID),
		},
		named: map[string]Converter{
			"email":      ConverterFunc(convertEmail),
			"creditcard": ConverterFunc(convertCreditCard),
			"percentage": ConverterFunc(convertPercentage),
			"trim":       ConverterFunc(convertTrim),
			"lower":      ConverterFunc(convertLower),
			"upper":      ConverterFunc(convertUpper),
		},
		kinds: map[reflect.Kind]Converter{
			reflect.Bool:    ConverterFunc(convertBool),
			reflect.String:  ConverterFunc(convertString),
			reflect.Int:     ConverterFunc(convertInt),
			reflect.Int8:    ConverterFunc(convertInt),
			reflect.Int16:   ConverterFunc(convertInt),
			reflect.Int32:   ConverterFunc(convertInt),
			reflect.Int64:   ConverterFunc(convertInt),
			reflect.Uint:    ConverterFunc(convertUint),
			reflect.Uint8:   ConverterFunc(convertUint),
			reflect.Uint16:  ConverterFunc(convertUint),
			reflect.Uint32:  ConverterFunc(convertUint),
			reflect.Uint64:  ConverterFunc(convertUint),
			reflect.Float32: ConverterFunc(convertFloat),
			reflect.Float64: ConverterFunc(convertFloat),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds c as the converter for T.
func Register[T any](r *Registry, c Converter) {
	r.Add(reflect.TypeFor[T](), c)
}

// Add registers c for the exact type t.
func (r *Registry) Add(t reflect.Type, c Converter) {
	r.mu.Lock()
	r.types[t] = c
	r.mu.Unlock()
	r.cache.Clear()
}

// AddNamed registers a converter selectable with `convert:"name"`.
func (r *Registry) AddNamed(name string, c Converter) {
	r.mu.Lock()
	r.named[name] = c
	r.mu.Unlock()
}

// Named returns the converter registered under name.
func (r *Registry) Named(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.named[name]
	return c, ok
}

// Lookup returns the converter for t, or nil when there is none. Pointer
// types resolve to their element type. The search order is: exact type,
// Enumerated, encoding.TextUnmarshaler, then the converter of the
// underlying kind.
func (r *Registry) Lookup(t reflect.Type) Converter {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := r.cache.Load(t); ok {
		return v.(lookupResult).c
	}
	c := r.lookup(t)
	r.cache.Store(t, lookupResult{c: c})
	return c
}

// ForField is Lookup with the field's `convert` tag taking precedence.
func (r *Registry) ForField(field reflect.StructField, t reflect.Type) (Converter, error) {
	if name := field.Tag.Get(TagName); name != "" {
		c, ok := r.Named(name)
		if !ok {
			return nil, &unknownNamedError{name: name}
		}
		return c, nil
	}
	return r.Lookup(t), nil
}

// Convert converts input to t with the converter Lookup finds.
func (r *Registry) Convert(input string, t reflect.Type, f *i18n.LocaleFormat) (any, error) {
	c := r.Lookup(t)
	if c == nil {
		return nil, ErrNoConverter
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f == nil {
		f = i18n.FormatEnUS()
	}
	return c.Convert(input, t, f)
}

var (
	enumeratedType = reflect.TypeFor[Enumerated]()
	textType       = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func (r *Registry) lookup(t reflect.Type) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.types[t]; ok {
		return c
	}
	if t.Implements(enumeratedType) {
		switch t.Kind() {
		case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return ConverterFunc(convertEnum)
		}
	}
	if reflect.PointerTo(t).Implements(textType) {
		return ConverterFunc(convertText)
	}
	return r.kinds[t.Kind()]
}

type unknownNamedError struct{ name string }

func (e *unknownNamedError) Error() string { return ErrUnknownNamed.Error() + ": " + e.name }
func (e *unknownNamedError) Unwrap() error { return ErrUnknownNamed }
