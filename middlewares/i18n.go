package middlewares

import (
	"slices"

	"github.com/dmitrymomot/stride/internal"
	"github.com/dmitrymomot/stride/pkg/i18n"
)

// I18nConfig configures the I18n middleware.
type I18nConfig struct {
	FormatMap    map[string]*i18n.LocaleFormat
	Extractor    internal.Extractor
	extractorSet bool
}

// I18nOption configures I18nConfig.
type I18nOption func(*I18nConfig)

// WithI18nExtractor sets the sources that name the language explicitly,
// such as a cookie or a parameter. Accept-Language is always the last
// resort.
func WithI18nExtractor(ext internal.Extractor) I18nOption {
	return func(cfg *I18nConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// WithI18nFormatMap overrides the locale format used to parse and format
// input for some languages.
func WithI18nFormatMap(m map[string]*i18n.LocaleFormat) I18nOption {
	return func(cfg *I18nConfig) {
		cfg.FormatMap = m
	}
}

// I18n returns middleware that picks the request's language and stores a
// Translator for it. Binding then parses numbers and dates in that
// language's format and validation messages come from the catalog.
//
// The language is taken from the extractor (the "lang" parameter, then
// the "lang" cookie, by default) when the catalog has it, otherwise from
// Accept-Language.
func I18n(catalog *i18n.Catalog, opts ...I18nOption) internal.Middleware {
	cfg := &I18nConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.extractorSet {
		cfg.Extractor = internal.NewExtractor(
			internal.FromParam("lang"),
			internal.FromCookie("lang"),
		)
	}
	available := catalog.Languages()

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			lang, ok := cfg.Extractor.Extract(c)
			if !ok || !slices.Contains(available, lang) {
				lang = catalog.Match(c.Header("Accept-Language"))
			}

			format := cfg.FormatMap[lang]
			c.Set(internal.TranslatorKey{}, i18n.NewTranslator(catalog, lang, format))
			return next(c)
		}
	}
}
