package i18n

import "golang.org/x/text/language"

// Predefined locale formats keyed by language tag.
var formats = map[language.Tag]*LocaleFormat{
	language.AmericanEnglish: NewLocaleFormat(),
	language.BritishEnglish: NewLocaleFormat(
		WithCurrencySymbol("£"),
		WithDateFormat("02/01/2006"),
		WithDateTimeFormat("02/01/2006 15:04"),
	),
	language.German: NewLocaleFormat(
		WithDecimalSeparator(","),
		WithThousandSeparator("."),
		WithCurrencySymbol("€"),
		WithDateFormat("02.01.2006"),
		WithDateTimeFormat("02.01.2006 15:04"),
	),
	language.French: NewLocaleFormat(
		WithDecimalSeparator(","),
		WithThousandSeparator(" "),
		WithCurrencySymbol("€"),
		WithDateFormat("02/01/2006"),
		WithDateTimeFormat("02/01/2006 15:04"),
	),
	language.Spanish: NewLocaleFormat(
		WithDecimalSeparator(","),
		WithThousandSeparator("."),
		WithCurrencySymbol("€"),
		WithDateFormat("02/01/2006"),
		WithDateTimeFormat("02/01/2006 15:04"),
	),
	language.BrazilianPortuguese: NewLocaleFormat(
		WithDecimalSeparator(","),
		WithThousandSeparator("."),
		WithCurrencySymbol("R$"),
		WithDateFormat("02/01/2006"),
		WithDateTimeFormat("02/01/2006 15:04"),
	),
	language.Polish: NewLocaleFormat(
		WithDecimalSeparator(","),
		WithThousandSeparator(" "),
		WithCurrencySymbol("zł"),
		WithDateFormat("02.01.2006"),
		WithDateTimeFormat("02.01.2006 15:04"),
	),
	language.Russian: NewLocaleFormat(
		WithDecimalSeparator(","),
		WithThousandSeparator(" "),
		WithCurrencySymbol("₽"),
		WithDateFormat("02.01.2006"),
		WithDateTimeFormat("02.01.2006 15:04"),
	),
	language.Japanese: NewLocaleFormat(
		WithCurrencySymbol("¥"),
		WithDateFormat("2006/01/02"),
		WithDateTimeFormat("2006/01/02 15:04"),
	),
	language.SimplifiedChinese: NewLocaleFormat(
		WithCurrencySymbol("¥"),
		WithDateFormat("2006-01-02"),
		WithDateTimeFormat("2006-01-02 15:04"),
	),
}

// formatTags fixes the order the matcher indexes into. The first tag is
// the matcher's fallback.
var formatTags = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Spanish,
	language.BrazilianPortuguese,
	language.Polish,
	language.Russian,
	language.Japanese,
	language.SimplifiedChinese,
}

var formatMatcher = language.NewMatcher(formatTags)

// FormatFor returns the predefined LocaleFormat closest to lang, falling
// back to US English. lang is a BCP 47 tag such as "de" or "pt-BR".
func FormatFor(lang string) *LocaleFormat {
	tag, err := language.Parse(lang)
	if err != nil {
		return formats[language.AmericanEnglish]
	}
	_, idx, conf := formatMatcher.Match(tag)
	if conf == language.No {
		return formats[language.AmericanEnglish]
	}
	return formats[formatTags[idx]]
}

// FormatEnUS returns the US English format.
func FormatEnUS() *LocaleFormat { return formats[language.AmericanEnglish] }

// FormatDeDE returns the German format.
func FormatDeDE() *LocaleFormat { return formats[language.German] }

// FormatFrFR returns the French format.
func FormatFrFR() *LocaleFormat { return formats[language.French] }
