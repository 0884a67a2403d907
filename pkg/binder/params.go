package binder

import "strings"

// Reserved request parameters. They drive the framework and are never
// bound to bean properties.
const (
	ParamEventName     = "_eventName"
	ParamSourcePage    = "_sourcePage"
	ParamFieldsPresent = "__fp"
	ParamFlashKey      = "__fsk"
)

// IsReserved reports whether name is a reserved parameter.
func IsReserved(name string) bool {
	switch name {
	case ParamEventName, ParamSourcePage, ParamFieldsPresent, ParamFlashKey:
		return true
	}
	return false
}

// SplitFieldsPresent turns decoded fields-present values into property
// names. Each value is a comma-separated list.
func SplitFieldsPresent(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		for name := range strings.SplitSeq(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func allEmpty(values []string, trim bool) bool {
	for _, v := range values {
		if trim {
			v = strings.TrimSpace(v)
		}
		if v != "" {
			return false
		}
	}
	return true
}
