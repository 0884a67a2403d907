package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/pkg/logger"
)

type ctxKey struct{}

func fromCtx(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with extractor", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf}, logger.StringExtractor("action", fromCtx), nil)

		ctx := context.WithValue(context.Background(), ctxKey{}, "/user.action")
		log.InfoContext(ctx, "handled", slog.Int("status", 200))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "handled", rec["msg"])
		assert.Equal(t, "/user.action", rec["action"])
		assert.InDelta(t, 200, rec["status"], 0)
	})

	t.Run("empty extractor value is skipped", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf}, logger.StringExtractor("action", fromCtx))
		log.Info("x")
		assert.NotContains(t, buf.String(), "action")
	})

	t.Run("level filters", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: slog.LevelWarn, Format: "text"})
		log.Info("hidden")
		log.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})

	t.Run("attrs and groups keep extractors", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf}, logger.StringExtractor("action", fromCtx)).
			With(slog.String("component", "binder"))

		ctx := context.WithValue(context.Background(), ctxKey{}, "a")
		log.InfoContext(ctx, "x")
		assert.Contains(t, buf.String(), `"component":"binder"`)
		assert.Contains(t, buf.String(), `"action":"a"`)
	})
}

func TestNewWithSentry_NoDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.Config{Output: &buf}, logger.SentryConfig{})
	log.Error("boom")
	assert.Contains(t, buf.String(), "boom")
}

func TestNewNope(t *testing.T) {
	t.Parallel()
	assert.False(t, logger.NewNope().Enabled(context.Background(), slog.LevelError))
}
