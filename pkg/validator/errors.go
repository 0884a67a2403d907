package validator

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// GlobalKey collects errors that belong to no single field.
const GlobalKey = "__global__"

var ErrInvalidTag = errors.New("validator: invalid validate tag")

// Error is a single validation failure.
type Error struct {
	// Field is the parameter name, indexes included.
	Field string `json:"field,omitempty"`
	// Value is the submitted value, HTML-encoded for echoing.
	Value string `json:"value,omitempty"`
	// Message is the human readable text. It starts as TranslationKey and
	// is replaced by Translate.
	Message           string         `json:"message"`
	TranslationKey    string         `json:"-"`
	TranslationValues map[string]any `json:"-"`
	// ActionPath and BeanName identify the action that produced the error.
	ActionPath string `json:"-"`
	BeanName   string `json:"-"`

	prepared bool
}

// NewError creates a field error with a message key and its placeholders.
func NewError(field, key string, values map[string]any) *Error {
	return &Error{
		Field:             field,
		Message:           key,
		TranslationKey:    key,
		TranslationValues: values,
	}
}

// NewMessage creates an error with a literal, untranslated message.
func NewMessage(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

func (e *Error) Error() string {
	if e.Field == "" || e.Field == GlobalKey {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Prepared reports whether Prepare has run on the error.
func (e *Error) Prepared() bool { return e.prepared }

// Prepare fills in the action context and the encoded value once. Later
// calls are no-ops.
func (e *Error) Prepare(actionPath, beanName string, encode func(string) string) {
	if e.prepared {
		return
	}
	e.prepared = true
	e.ActionPath = actionPath
	e.BeanName = beanName
	if encode != nil && e.Value != "" {
		e.Value = encode(e.Value)
	}
}

// TranslateFunc returns the message for key with values substituted.
type TranslateFunc func(key string, values map[string]any) string

// Validatable is implemented by beans with cross-field checks that run
// after binding. Returning ValidationErrors merges them field by field;
// any other error is recorded as a global error.
type Validatable interface {
	Validate() error
}

// ValidationErrors maps field names to their errors in the order they
// were added. It implements error so it can travel through error returns.
type ValidationErrors map[string][]*Error

// Add appends errs under field and sets their Field when empty.
func (ve ValidationErrors) Add(field string, errs ...*Error) {
	for _, e := range errs {
		if e.Field == "" {
			e.Field = field
		}
	}
	ve[field] = append(ve[field], errs...)
}

// AddGlobal records errors that belong to no single field.
func (ve ValidationErrors) AddGlobal(errs ...*Error) {
	for _, e := range errs {
		e.Field = GlobalKey
	}
	ve[GlobalKey] = append(ve[GlobalKey], errs...)
}

// Merge adds every error of other.
func (ve ValidationErrors) Merge(other ValidationErrors) {
	for field, errs := range other {
		ve[field] = append(ve[field], errs...)
	}
}

// Has reports whether field has errors.
func (ve ValidationErrors) Has(field string) bool {
	return len(ve[field]) > 0
}

// Get returns the errors of field.
func (ve ValidationErrors) Get(field string) []*Error {
	return ve[field]
}

// Global returns the errors that belong to no single field.
func (ve ValidationErrors) Global() []*Error {
	return ve[GlobalKey]
}

// HasFieldErrors reports whether any field other than the global key has errors.
func (ve ValidationErrors) HasFieldErrors() bool {
	for field, errs := range ve {
		if field != GlobalKey && len(errs) > 0 {
			return true
		}
	}
	return false
}

// Empty reports whether there are no errors at all.
func (ve ValidationErrors) Empty() bool {
	for _, errs := range ve {
		if len(errs) > 0 {
			return false
		}
	}
	return true
}

// Fields returns the field names with errors, sorted, global key last.
func (ve ValidationErrors) Fields() []string {
	fields := slices.Sorted(maps.Keys(ve))
	fields = slices.DeleteFunc(fields, func(f string) bool {
		return f == GlobalKey || len(ve[f]) == 0
	})
	if len(ve[GlobalKey]) > 0 {
		fields = append(fields, GlobalKey)
	}
	return fields
}

// All returns every error in Fields order.
func (ve ValidationErrors) All() []*Error {
	var out []*Error
	for _, f := range ve.Fields() {
		out = append(out, ve[f]...)
	}
	return out
}

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve.All() {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Translate replaces each message that has a TranslationKey with the
// result of fn. A nil fn is a no-op.
func (ve ValidationErrors) Translate(fn TranslateFunc) {
	if fn == nil {
		return
	}
	for _, errs := range ve {
		for _, e := range errs {
			if e.TranslationKey != "" {
				e.Message = fn(e.TranslationKey, e.TranslationValues)
			}
		}
	}
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors returns the ValidationErrors carried by err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
