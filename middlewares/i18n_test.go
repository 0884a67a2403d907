package middlewares_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/internal"
	"github.com/dmitrymomot/stride/middlewares"
	"github.com/dmitrymomot/stride/pkg/i18n"
)

func TestI18n(t *testing.T) {
	t.Parallel()

	catalog := i18n.MustNew(
		i18n.WithMessages("en", map[string]any{"greeting": "Hello"}),
		i18n.WithMessages("de", map[string]any{"greeting": "Hallo"}),
	)

	type seen struct {
		lang, text string
		amount     float64
	}
	sample := func(out *seen) func(c internal.Context) error {
		return func(c internal.Context) error {
			out.lang = c.Language()
			out.text = c.T("greeting")
			v, err := internal.Param[float64](c, "amount")
			out.amount = v
			return err
		}
	}

	tests := []struct {
		name    string
		target  string
		headers []string
		lang    string
		text    string
	}{
		{"default language", "/sample", nil, "en", "Hello"},
		{"accept language", "/sample", []string{"Accept-Language", "de-AT,de;q=0.9"}, "de", "Hallo"},
		{"parameter wins", "/sample?lang=en", []string{"Accept-Language", "de"}, "en", "Hello"},
		{"cookie", "/sample", []string{"Cookie", "lang=de"}, "de", "Hallo"},
		{"unknown language falls back", "/sample?lang=xx", []string{"Accept-Language", "de"}, "de", "Hallo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out seen
			app := newApp(t, sample(&out), middlewares.I18n(catalog))

			w := get(app, tt.target, tt.headers...)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.lang, out.lang)
			assert.Equal(t, tt.text, out.text)
		})
	}

	t.Run("numbers use the language format", func(t *testing.T) {
		t.Parallel()
		var out seen
		app := newApp(t, sample(&out), middlewares.I18n(catalog))

		get(app, "/sample?amount=1.234,5", "Accept-Language", "de")
		assert.InDelta(t, 1234.5, out.amount, 1e-9)

		get(app, "/sample?amount=1,234.5", "Accept-Language", "en")
		assert.InDelta(t, 1234.5, out.amount, 1e-9)
	})

	t.Run("format map", func(t *testing.T) {
		t.Parallel()
		var out seen
		app := newApp(t, sample(&out), middlewares.I18n(catalog,
			middlewares.WithI18nFormatMap(map[string]*i18n.LocaleFormat{"en": i18n.FormatDeDE()}),
		))

		get(app, "/sample?amount=2,5")
		assert.InDelta(t, 2.5, out.amount, 1e-9)
	})

	t.Run("custom extractor", func(t *testing.T) {
		t.Parallel()
		var out seen
		app := newApp(t, sample(&out), middlewares.I18n(catalog,
			middlewares.WithI18nExtractor(internal.NewExtractor(internal.FromHeader("X-Lang"))),
		))

		get(app, "/sample?lang=en", "X-Lang", "de")
		assert.Equal(t, "de", out.lang)
	})
}
