package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/internal"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("write header once", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w)

		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusNotFound)

		assert.True(t, rw.Written())
		assert.Equal(t, http.StatusCreated, rw.Status())
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("write implies 200", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w)

		n, err := rw.Write([]byte("hello world"))
		require.NoError(t, err)

		assert.Equal(t, 11, n)
		assert.Equal(t, int64(11), rw.Size())
		assert.Equal(t, http.StatusOK, rw.Status())
		assert.Equal(t, "hello world", w.Body.String())
	})

	t.Run("hooks run once before the header", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w)

		calls := 0
		rw.OnBeforeWrite(func() {
			calls++
			rw.Header().Set("X-Late", "yes")
		})

		_, _ = rw.Write([]byte("a"))
		_, _ = rw.Write([]byte("b"))

		assert.Equal(t, 1, calls)
		assert.Equal(t, "yes", w.Header().Get("X-Late"))
	})

	t.Run("flush sends the header", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w)

		rw.Flush()

		assert.True(t, rw.Written())
		assert.True(t, w.Flushed)
	})

	t.Run("hijack unsupported", func(t *testing.T) {
		t.Parallel()
		rw := internal.NewResponseWriter(httptest.NewRecorder())
		_, _, err := rw.Hijack()
		require.ErrorIs(t, err, http.ErrNotSupported)
	})

	t.Run("unwrap", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		assert.Same(t, w, internal.NewResponseWriter(w).Unwrap())
	})
}
