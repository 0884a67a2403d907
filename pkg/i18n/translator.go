package i18n

import "time"

// Translator binds a Catalog to one language and locale format. One is
// created per request once the request language is known.
type Translator struct {
	catalog  *Catalog
	format   *LocaleFormat
	language string
}

// NewTranslator creates a Translator. An empty language selects the
// catalog default, a nil format the predefined format for the language.
func NewTranslator(catalog *Catalog, language string, format *LocaleFormat) *Translator {
	if catalog == nil {
		panic("i18n: catalog is not provided")
	}
	if language == "" {
		language = catalog.DefaultLanguage()
	}
	if format == nil {
		format = FormatFor(language)
	}
	return &Translator{
		catalog:  catalog,
		language: language,
		format:   format,
	}
}

// T translates key in the translator's language.
func (t *Translator) T(key string, placeholders ...M) string {
	return t.catalog.T(t.language, key, placeholders...)
}

// TranslateMessage has the shape of validator.TranslateFunc:
//
//	errs.Translate(tr.TranslateMessage)
func (t *Translator) TranslateMessage(key string, values map[string]any) string {
	return t.catalog.T(t.language, key, values)
}

// Has reports whether key is translatable in the translator's language.
func (t *Translator) Has(key string) bool {
	return t.catalog.Has(t.language, key)
}

// FormatNumber formats n with the locale's separators.
func (t *Translator) FormatNumber(n float64) string {
	return t.format.FormatNumber(n)
}

// FormatDate formats d with the locale's date layout.
func (t *Translator) FormatDate(d time.Time) string {
	return t.format.FormatDate(d)
}

// FormatDateTime formats d with the locale's date-time layout.
func (t *Translator) FormatDateTime(d time.Time) string {
	return t.format.FormatDateTime(d)
}

// Language returns the translator's language.
func (t *Translator) Language() string {
	return t.language
}

// Format returns the translator's LocaleFormat.
func (t *Translator) Format() *LocaleFormat {
	return t.format
}
