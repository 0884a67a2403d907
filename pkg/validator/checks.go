package validator

import (
	"math"
	"reflect"
	"unicode/utf8"
)

// Message keys of the built-in checks.
const (
	KeyRequired  = "validation.required.valueNotPresent"
	KeyMinLength = "validation.minlength.valueTooShort"
	KeyMaxLength = "validation.maxlength.valueTooLong"
	KeyMask      = "validation.mask.valueDoesNotMatch"
	KeyMinValue  = "validation.minvalue.valueBelowMinimum"
	KeyMaxValue  = "validation.maxvalue.valueAboveMaximum"
	KeyInvalid   = "validation.invalid"
)

// RequiredError returns the error for a missing required value.
func (m *Metadata) RequiredError(field string) *Error {
	return NewError(field, KeyRequired, map[string]any{"field": m.FieldLabel()})
}

// CheckString runs the checks that apply to the raw input: length and
// mask. Empty values are not checked.
func (m *Metadata) CheckString(field, value string) []*Error {
	if value == "" {
		return nil
	}
	var errs []*Error
	n := utf8.RuneCountInString(value)
	if m.MinLength != nil && n < *m.MinLength {
		errs = append(errs, m.valueError(field, KeyMinLength, value, "min", *m.MinLength))
	}
	if m.MaxLength != nil && n > *m.MaxLength {
		errs = append(errs, m.valueError(field, KeyMaxLength, value, "max", *m.MaxLength))
	}
	if m.Mask != nil && !m.Mask.MatchString(value) {
		errs = append(errs, m.valueError(field, KeyMask, value))
	}
	return errs
}

// CheckValue runs the min and max checks against a converted value.
// Non-numeric values, nil pointers and empty collections pass; collections
// are checked element by element.
func (m *Metadata) CheckValue(field string, v any) []*Error {
	if m.Min == nil && m.Max == nil || v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var errs []*Error
		for i := range rv.Len() {
			errs = append(errs, m.CheckValue(field, rv.Index(i).Interface())...)
		}
		return errs
	}

	f, ok := number(rv)
	if !ok {
		return nil
	}
	var errs []*Error
	if m.Min != nil && f < *m.Min {
		errs = append(errs, m.valueError(field, KeyMinValue, rv.Interface(), "min", *m.Min))
	}
	if m.Max != nil && f > *m.Max {
		errs = append(errs, m.valueError(field, KeyMaxValue, rv.Interface(), "max", *m.Max))
	}
	return errs
}

func (m *Metadata) valueError(field, key string, value any, kv ...any) *Error {
	values := map[string]any{"field": m.FieldLabel(), "value": value}
	for i := 0; i+1 < len(kv); i += 2 {
		values[kv[i].(string)] = kv[i+1]
	}
	e := NewError(field, key, values)
	if s, ok := value.(string); ok {
		e.Value = s
	}
	return e
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f, !math.IsNaN(f)
	}
	return 0, false
}
