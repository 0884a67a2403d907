package internal_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/internal"
	"github.com/dmitrymomot/stride/pkg/logger"
)

type echoAction struct{}

var echoSource = internal.NewExtractor(
	internal.FromHeader("X-Lang"),
	internal.FromParam("lang"),
	internal.FromCookie("lang"),
)

func (a *echoAction) Lang(c internal.Context) (internal.Resolution, error) {
	v, ok := echoSource.Extract(c)
	if !ok {
		return internal.Text(http.StatusOK, "none"), nil
	}
	return internal.Text(http.StatusOK, v), nil
}

func (a *echoAction) Log(c internal.Context) (internal.Resolution, error) {
	c.Logger().InfoContext(c, "handled")
	return internal.NoContent(http.StatusNoContent), nil
}

func echoBean() *internal.ActionBean {
	return internal.Bean[echoAction]("/echo/{$event}",
		internal.DefaultEvent("lang", (*echoAction).Lang),
		internal.Event("log", (*echoAction).Log),
	)
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(echoBean()))

	t.Run("all sources miss", func(t *testing.T) {
		t.Parallel()
		w := do(app, http.MethodGet, "/echo", nil)
		assert.Equal(t, "none", w.Body.String())
	})

	t.Run("first source wins", func(t *testing.T) {
		t.Parallel()
		w := do(app, http.MethodGet, "/echo?lang=de", nil, "X-Lang", "fr", "Cookie", "lang=it")
		assert.Equal(t, "fr", w.Body.String())
	})

	t.Run("falls through to param", func(t *testing.T) {
		t.Parallel()
		w := do(app, http.MethodGet, "/echo?lang=de", nil, "Cookie", "lang=it")
		assert.Equal(t, "de", w.Body.String())
	})

	t.Run("falls through to cookie", func(t *testing.T) {
		t.Parallel()
		w := do(app, http.MethodGet, "/echo", nil, "Cookie", "lang=it")
		assert.Equal(t, "it", w.Body.String())
	})

	t.Run("empty values are skipped", func(t *testing.T) {
		t.Parallel()
		w := do(app, http.MethodGet, "/echo?lang=", nil, "X-Lang", "", "Cookie", "lang=it")
		assert.Equal(t, "it", w.Body.String())
	})
}

func TestLogExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil),
		internal.ActionExtractor(),
		internal.EventExtractor(),
		internal.StageExtractor(),
	))
	app := newApp(t, internal.WithLogger(log), internal.WithBeans(echoBean()))

	w := do(app, http.MethodGet, "/echo/log", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "handled", line["msg"])
	assert.Equal(t, "echo", line["action"])
	assert.Equal(t, "log", line["event"])
	assert.Equal(t, "EventHandling", line["stage"])

	t.Run("outside a dispatch", func(t *testing.T) {
		var out bytes.Buffer
		l := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&out, nil), internal.ActionExtractor()))
		l.Info("idle")
		assert.NotContains(t, out.String(), `"action"`)
	})
}
