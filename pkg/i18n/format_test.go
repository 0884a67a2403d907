package i18n_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/pkg/i18n"
)

func TestLocaleFormat_FormatNumber(t *testing.T) {
	t.Parallel()

	t.Run("English format", func(t *testing.T) {
		t.Parallel()
		lf := i18n.FormatEnUS()

		require.Equal(t, "1,234", lf.FormatNumber(1234))
		require.Equal(t, "1,234.5", lf.FormatNumber(1234.5))
		require.Equal(t, "1,234,567.89", lf.FormatNumber(1234567.89))
		require.Equal(t, "-1,234.5", lf.FormatNumber(-1234.5))
		require.Equal(t, "0", lf.FormatNumber(0))
	})

	t.Run("German format", func(t *testing.T) {
		t.Parallel()
		lf := i18n.FormatDeDE()

		require.Equal(t, "1.234", lf.FormatNumber(1234))
		require.Equal(t, "1.234.567,89", lf.FormatNumber(1234567.89))
	})
}

func TestLocaleFormat_ParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format *i18n.LocaleFormat
		input  string
		want   float64
	}{
		{"plain", i18n.FormatEnUS(), "42", 42},
		{"grouped", i18n.FormatEnUS(), "1,234.5", 1234.5},
		{"currency", i18n.FormatEnUS(), "$1,000", 1000},
		{"parentheses negative", i18n.FormatEnUS(), "($12.50)", -12.5},
		{"percent", i18n.FormatEnUS(), "50%", 0.5},
		{"german decimal", i18n.FormatDeDE(), "1.234,5", 1234.5},
		{"german currency", i18n.FormatDeDE(), "12,00 €", 12},
		{"french non-breaking space", i18n.FormatFrFR(), "1\u00a0234,5", 1234.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.format.ParseNumber(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.FormatEnUS().ParseNumber("12abc")
		require.Error(t, err)
	})
}

func TestLocaleFormat_Dates(t *testing.T) {
	t.Parallel()

	d := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "03/15/2024", i18n.FormatEnUS().FormatDate(d))
	assert.Equal(t, "15.03.2024", i18n.FormatDeDE().FormatDate(d))
	assert.Equal(t, "15.03.2024 14:30", i18n.FormatDeDE().FormatDateTime(d))

	lf := i18n.NewLocaleFormat(i18n.WithDateLayouts("2006-01-02"))
	assert.Equal(t, []string{"01/02/2006 3:04 PM", "01/02/2006", "2006-01-02"}, lf.DateLayouts())
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ",", i18n.FormatFor("de").DecimalSeparator())
	assert.Equal(t, ",", i18n.FormatFor("de-AT").DecimalSeparator())
	assert.Equal(t, "R$", i18n.FormatFor("pt-BR").CurrencySymbol())
	assert.Equal(t, "£", i18n.FormatFor("en-GB").CurrencySymbol())
	assert.Equal(t, "$", i18n.FormatFor("not a tag").CurrencySymbol())
	assert.Equal(t, "$", i18n.FormatFor("").CurrencySymbol())
}
