// Package i18n provides message catalogs and locale formats for request
// localization.
//
// A [Catalog] maps dotted message keys to templates per language. It ships
// with English and German messages for every validation and conversion
// error key, so an application only supplies the keys it wants to change:
//
//	catalog, err := i18n.New(
//		i18n.WithDefaultLanguage("en"),
//		i18n.WithMessages("en", map[string]any{
//			"validation": map[string]any{
//				"required": map[string]any{"valueNotPresent": "Please fill in {{field}}"},
//			},
//		}),
//	)
//
// # Files
//
// [WithYAMLDir] loads YAML files from any fs.FS. A file is named after its
// language (en.yaml) or lives in a directory named after it (de/forms.yaml).
//
// # Fallback
//
// [Catalog.T] looks a key up in the requested language, its base language
// and the default language, in that order, and returns the key itself when
// nothing matches. Placeholders use the {{name}} form.
//
// # Locale formats
//
// A [LocaleFormat] holds number separators and date layouts. Converters use
// it to parse user input and error messages use it to print bounds.
// [FormatFor] picks the closest predefined format for a language tag.
package i18n
