package i18n

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// LocaleFormat holds the number and date conventions of a locale. It is
// used in both directions: converters parse user input with it and error
// messages format bounds with it. Immutable after creation.
type LocaleFormat struct {
	decimalSeparator  string
	thousandSeparator string
	currencySymbol    string
	percentSymbol     string
	dateFormat        string
	dateTimeFormat    string
	extraDateLayouts  []string
}

// LocaleFormatOption configures a LocaleFormat during construction.
type LocaleFormatOption func(*LocaleFormat)

// NewLocaleFormat creates a LocaleFormat. Without options it uses US
// English conventions.
func NewLocaleFormat(opts ...LocaleFormatOption) *LocaleFormat {
	lf := &LocaleFormat{
		decimalSeparator:  ".",
		thousandSeparator: ",",
		currencySymbol:    "$",
		percentSymbol:     "%",
		dateFormat:        "01/02/2006",
		dateTimeFormat:    "01/02/2006 3:04 PM",
	}
	for _, opt := range opts {
		opt(lf)
	}
	return lf
}

// WithDecimalSeparator sets the decimal separator.
func WithDecimalSeparator(sep string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.decimalSeparator = sep }
}

// WithThousandSeparator sets the digit grouping separator.
func WithThousandSeparator(sep string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.thousandSeparator = sep }
}

// WithCurrencySymbol sets the currency symbol stripped from numeric input.
func WithCurrencySymbol(symbol string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.currencySymbol = symbol }
}

// WithPercentSymbol sets the percent symbol.
func WithPercentSymbol(symbol string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.percentSymbol = symbol }
}

// WithDateFormat sets the primary date layout (Go time layout).
func WithDateFormat(layout string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.dateFormat = layout }
}

// WithDateTimeFormat sets the primary date-time layout (Go time layout).
func WithDateTimeFormat(layout string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.dateTimeFormat = layout }
}

// WithDateLayouts adds layouts tried after the primary ones when parsing.
func WithDateLayouts(layouts ...string) LocaleFormatOption {
	return func(lf *LocaleFormat) { lf.extraDateLayouts = append(lf.extraDateLayouts, layouts...) }
}

// DecimalSeparator returns the decimal separator.
func (lf *LocaleFormat) DecimalSeparator() string { return lf.decimalSeparator }

// ThousandSeparator returns the digit grouping separator.
func (lf *LocaleFormat) ThousandSeparator() string { return lf.thousandSeparator }

// CurrencySymbol returns the currency symbol.
func (lf *LocaleFormat) CurrencySymbol() string { return lf.currencySymbol }

// PercentSymbol returns the percent symbol.
func (lf *LocaleFormat) PercentSymbol() string { return lf.percentSymbol }

// DateLayouts returns the layouts used to parse dates, most specific first.
func (lf *LocaleFormat) DateLayouts() []string {
	out := make([]string, 0, 2+len(lf.extraDateLayouts))
	out = append(out, lf.dateTimeFormat, lf.dateFormat)
	return append(out, lf.extraDateLayouts...)
}

// NormalizeNumber rewrites localized numeric input into the form accepted
// by strconv: grouping separators, currency and percent symbols and
// surrounding whitespace are removed, the decimal separator becomes '.',
// and an amount in parentheses becomes negative. The second result
// reports whether a percent symbol was present.
func (lf *LocaleFormat) NormalizeNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	percent := lf.percentSymbol != "" && strings.Contains(s, lf.percentSymbol)
	if percent {
		s = strings.ReplaceAll(s, lf.percentSymbol, "")
	}
	if lf.currencySymbol != "" {
		s = strings.ReplaceAll(s, lf.currencySymbol, "")
	}
	if lf.thousandSeparator != "" {
		s = strings.ReplaceAll(s, lf.thousandSeparator, "")
		// Locales grouping with spaces often receive non-breaking ones.
		if strings.TrimSpace(lf.thousandSeparator) == "" {
			s = strings.ReplaceAll(s, "\u00a0", "")
			s = strings.ReplaceAll(s, "\u202f", "")
		}
	}
	if lf.decimalSeparator != "." {
		s = strings.ReplaceAll(s, lf.decimalSeparator, ".")
	}
	s = strings.TrimSpace(s)
	if negative && s != "" && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s, percent
}

// ParseNumber parses localized numeric input as a float64.
// Percentages are divided by 100.
func (lf *LocaleFormat) ParseNumber(s string) (float64, error) {
	norm, percent := lf.NormalizeNumber(s)
	f, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	if percent {
		f /= 100
	}
	return f, nil
}

// FormatNumber formats a number with the locale's separators using at
// most two fractional digits.
func (lf *LocaleFormat) FormatNumber(n float64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	n = math.Round(n*100) / 100
	whole := int64(n)
	out := lf.group(whole)
	if frac := strings.TrimRight(strconv.FormatFloat(n-float64(whole), 'f', 2, 64)[2:], "0"); frac != "" {
		out += lf.decimalSeparator + frac
	}
	return sign + out
}

// FormatDate formats a date with the locale's date layout.
func (lf *LocaleFormat) FormatDate(t time.Time) string {
	return t.Format(lf.dateFormat)
}

// FormatDateTime formats a timestamp with the locale's date-time layout.
func (lf *LocaleFormat) FormatDateTime(t time.Time) string {
	return t.Format(lf.dateTimeFormat)
}

func (lf *LocaleFormat) group(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(lf.thousandSeparator)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
