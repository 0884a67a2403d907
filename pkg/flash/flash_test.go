package flash_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/stride/pkg/flash"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string]()
		defer s.Close()

		_, err := s.Get(ctx, "missing")
		require.ErrorIs(t, err, flash.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[int]()
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", 42, time.Minute))
		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("expired values are gone", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string](flash.WithSweepInterval(0))
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", "v", time.Millisecond))
		time.Sleep(5 * time.Millisecond)
		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, flash.ErrNotFound)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string](flash.WithTTL(time.Millisecond))
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", "v", -1))
		time.Sleep(5 * time.Millisecond)
		_, err := s.Get(ctx, "k")
		require.NoError(t, err)
	})

	t.Run("take removes", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string]()
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", "v", 0))
		v, err := s.Take(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)

		_, err = s.Take(ctx, "k")
		require.ErrorIs(t, err, flash.ErrNotFound)
	})

	t.Run("capacity evicts least recently used", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string](flash.WithCapacity(2))
		defer s.Close()

		require.NoError(t, s.Set(ctx, "a", "1", 0))
		require.NoError(t, s.Set(ctx, "b", "2", 0))
		_, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "c", "3", 0))

		_, err = s.Get(ctx, "b")
		require.ErrorIs(t, err, flash.ErrNotFound)
		_, err = s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("sweeper drops expired values", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string](flash.WithSweepInterval(time.Millisecond))
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", "v", time.Millisecond))
		require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 2*time.Millisecond)
	})

	t.Run("closed store rejects writes", func(t *testing.T) {
		t.Parallel()
		s := flash.NewMemory[string]()
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		require.ErrorIs(t, s.Set(ctx, "k", "v", 0), flash.ErrClosed)
		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, flash.ErrClosed)
	})
}

type bean struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestScope(t *testing.T) {
	t.Parallel()

	var empty *flash.Scope
	assert.True(t, empty.Empty())

	s := &flash.Scope{}
	assert.True(t, s.Empty())

	require.NoError(t, s.PutBean("/user.action", &bean{Name: "ann", Count: 2}))
	s.AddMessage("saved")
	assert.False(t, s.Empty())

	var got bean
	ok, err := s.Bean("/user.action", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bean{Name: "ann", Count: 2}, got)

	ok, err = s.Bean("/other.action", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save then load once", func(t *testing.T) {
		t.Parallel()
		m := flash.NewManager(flash.NewMemory[*flash.Scope](), 0)
		defer m.Close()

		scope := &flash.Scope{}
		scope.AddMessage("hello")
		key, err := m.Save(ctx, scope)
		require.NoError(t, err)
		require.NotEmpty(t, key)

		got, err := m.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"hello"}, got.Messages)

		_, err = m.Load(ctx, key)
		require.ErrorIs(t, err, flash.ErrNotFound)
	})

	t.Run("empty scope is not saved", func(t *testing.T) {
		t.Parallel()
		store := flash.NewMemory[*flash.Scope]()
		m := flash.NewManager(store, time.Minute)
		defer m.Close()

		key, err := m.Save(ctx, &flash.Scope{})
		require.NoError(t, err)
		assert.Empty(t, key)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("malformed key", func(t *testing.T) {
		t.Parallel()
		m := flash.NewManager(flash.NewMemory[*flash.Scope](), 0)
		defer m.Close()

		_, err := m.Load(ctx, "../../etc")
		require.ErrorIs(t, err, flash.ErrNotFound)
	})
}
