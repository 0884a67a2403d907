package i18n

import (
	"fmt"
	"strings"
)

// ReplacePlaceholders substitutes {{name}} placeholders in template with
// values from placeholders. Unknown placeholders are left as is.
//
//	ReplacePlaceholders("{{field}} is required", M{"field": "Email"})
//	// "Email is required"
func ReplacePlaceholders(template string, placeholders M) string {
	if len(placeholders) == 0 || !strings.Contains(template, "{{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			break
		}
		name := strings.TrimSpace(rest[start+2 : start+2+end])
		b.WriteString(rest[:start])
		if v, ok := placeholders[name]; ok {
			fmt.Fprint(&b, v)
		} else {
			b.WriteString(rest[start : start+4+end])
		}
		rest = rest[start+4+end:]
	}
	b.WriteString(rest)
	return b.String()
}
