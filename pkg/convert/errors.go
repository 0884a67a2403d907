package convert

import (
	"errors"
	"fmt"
)

var (
	ErrConversion   = errors.New("convert: conversion failed")
	ErrNoConverter  = errors.New("convert: no converter for type")
	ErrUnknownNamed = errors.New("convert: unknown named converter")
)

// Error is a localizable conversion failure. Key is a message key such as
// "converter.number.invalidNumber". Params always contains "value" with the
// raw input; some keys add bounds such as "min" and "max".
type Error struct {
	Key    string
	Params map[string]any
}

func newError(key, input string, kv ...any) *Error {
	params := map[string]any{"value": input}
	for i := 0; i+1 < len(kv); i += 2 {
		params[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return &Error{Key: key, Params: params}
}

func (e *Error) Error() string {
	return fmt.Sprintf("convert: %s (value %q)", e.Key, fmt.Sprint(e.Params["value"]))
}

func (e *Error) Is(target error) bool {
	return target == ErrConversion
}

// Message keys used by the built-in converters.
const (
	KeyInvalidNumber     = "converter.number.invalidNumber"
	KeyOutOfRange        = "converter.number.outOfRange"
	KeyDecimalValue      = "converter.integer.decimalValue"
	KeyInvalidDate       = "converter.date.invalidDate"
	KeyInvalidDuration   = "converter.duration.invalidDuration"
	KeyInvalidUUID       = "converter.uuid.invalidUUID"
	KeyInvalidEmail      = "converter.email.invalidEmail"
	KeyInvalidCreditCard = "converter.creditCard.invalidCreditCard"
	KeyNotEnumerated     = "converter.enum.notAnEnumeratedValue"
	KeyInvalidText       = "converter.text.invalid"
)
