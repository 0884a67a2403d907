// Package sanitizer makes user input safe to echo back into HTML.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict     *bluemonday.Policy
	formatting *bluemonday.Policy
	once       sync.Once
)

func policies() {
	once.Do(func() {
		strict = bluemonday.StrictPolicy()

		formatting = bluemonday.NewPolicy()
		formatting.AllowElements("b", "strong", "i", "em", "br", "code")
	})
}

// Text strips all markup from s and escapes what remains. Field values
// echoed in validation messages go through it.
func Text(s string) string {
	if s == "" {
		return s
	}
	policies()
	return strict.Sanitize(s)
}

// Message keeps inline emphasis in s and removes everything else. It is
// meant for translated messages that may carry simple formatting.
func Message(s string) string {
	policies()
	return formatting.Sanitize(s)
}

// With applies a caller-supplied policy. A nil policy falls back to Text.
func With(s string, p *bluemonday.Policy) string {
	if p == nil {
		return Text(s)
	}
	return p.Sanitize(s)
}
