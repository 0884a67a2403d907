package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/pkg/cookie"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestCodec(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		c := cookie.MustCodec(secret)
		token := c.Seal("/user/edit.jsp")
		assert.NotContains(t, token, "user")

		got, err := c.Open(token)
		require.NoError(t, err)
		assert.Equal(t, "/user/edit.jsp", got)
	})

	t.Run("tokens differ per seal", func(t *testing.T) {
		t.Parallel()
		c := cookie.MustCodec(secret)
		assert.NotEqual(t, c.Seal("x"), c.Seal("x"))
	})

	t.Run("same secret opens across codecs", func(t *testing.T) {
		t.Parallel()
		token := cookie.MustCodec(secret).Seal("a,b")
		got, err := cookie.MustCodec(secret).Open(token)
		require.NoError(t, err)
		assert.Equal(t, "a,b", got)
	})

	t.Run("random key is private to the codec", func(t *testing.T) {
		t.Parallel()
		token := cookie.MustCodec("").Seal("x")
		_, err := cookie.MustCodec("").Open(token)
		require.ErrorIs(t, err, cookie.ErrTampered)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		c := cookie.MustCodec(secret)
		token := c.Seal("value")
		flipped := "A"
		if token[0] == 'A' {
			flipped = "B"
		}
		for _, bad := range []string{"", "!!", "abc", flipped + token[1:], token + "x!"} {
			_, err := c.Open(bad)
			assert.ErrorIs(t, err, cookie.ErrTampered, bad)
		}
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.NewCodec("short")
		require.ErrorIs(t, err, cookie.ErrShortSecret)
	})
}

func TestManager(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.MustCodec(secret), cookie.WithSecure(true))

	rec := httptest.NewRecorder()
	m.SetSealed(rec, "stride_bean", "abc", 3600)
	res := rec.Result()
	defer res.Body.Close()
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, "/", c.Path)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	got, err := m.GetSealed(req, "stride_bean")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "stride_bean")
	require.ErrorIs(t, err, cookie.ErrNotFound)

	rec = httptest.NewRecorder()
	m.Delete(rec, "stride_bean")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}
