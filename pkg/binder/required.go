package binder

import (
	"mime/multipart"
	"net/url"
	"slices"
	"strings"

	"github.com/dmitrymomot/stride/pkg/validator"
)

// checkRequired records an error for every property required for event
// that has no non-empty value. Indexed properties are checked per row: a
// row is a collection entry such as "items[2]" with at least one non-empty
// parameter, and rows where everything is empty are ignored.
func checkRequired(meta *validator.Set, event string, params url.Values, files map[string][]*multipart.FileHeader, errs validator.ValidationErrors) {
	required := meta.Required(event)
	if len(required) == 0 {
		return
	}

	byProp := make(map[string][]string)
	for _, name := range sortedNames(params, files) {
		prop := strings.ToLower(validator.StripIndexes(name))
		byProp[prop] = append(byProp[prop], name)
	}

	present := func(name string, trim bool) bool {
		return !allEmpty(params[name], trim) || len(files[name]) > 0
	}

	for _, md := range required {
		prop := strings.ToLower(md.Name)
		if !md.Indexed {
			names := byProp[prop]
			if !slices.ContainsFunc(names, func(n string) bool { return present(n, md.Trim) }) {
				field := md.Name
				if len(names) > 0 {
					field = names[0]
				}
				errs.Add(field, md.RequiredError(field))
			}
			continue
		}

		for _, row := range rowsFor(prop, params, files, present) {
			field := row + md.Name[len(validator.StripIndexes(row)):]
			want := strings.ToLower(field)
			found := false
			for _, n := range byProp[prop] {
				if strings.ToLower(n) == want && present(n, md.Trim) {
					found = true
					break
				}
			}
			if !found {
				errs.Add(field, md.RequiredError(field))
			}
		}
	}
}

// rowsFor returns the row prefixes holding prop, such as "items[0]" for
// "items.qty", that have at least one non-empty parameter. The deepest
// indexed prefix of each parameter is its row.
func rowsFor(prop string, params url.Values, files map[string][]*multipart.FileHeader, present func(string, bool) bool) []string {
	seen := make(map[string]bool)
	var rows []string
	for _, name := range sortedNames(params, files) {
		if !present(name, true) {
			continue
		}
		row := ""
		for i := 0; i < len(name); i++ {
			if name[i] != ']' {
				continue
			}
			prefix := name[:i+1]
			if strings.HasPrefix(prop, strings.ToLower(validator.StripIndexes(prefix))+".") {
				row = prefix
			}
		}
		if row != "" && !seen[strings.ToLower(row)] {
			seen[strings.ToLower(row)] = true
			rows = append(rows, row)
		}
	}
	return rows
}
