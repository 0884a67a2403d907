package binding_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/pkg/binding"
)

func TestRules_Allowed(t *testing.T) {
	t.Parallel()

	t.Run("default allow", func(t *testing.T) {
		t.Parallel()
		r, err := binding.Compile(binding.Policy{
			Allow: []string{"user.admin.note"},
			Deny:  []string{"user.admin.**, password"},
		})
		require.NoError(t, err)

		assert.True(t, r.Allowed("user.name"))
		assert.True(t, r.Allowed("anything"))
		assert.False(t, r.Allowed("password"))
		assert.False(t, r.Allowed("user.admin.level"))
		assert.False(t, r.Allowed("user.admin.roles[0].name"))
		assert.True(t, r.Allowed("user.admin.note"), "allowed wins over denied")
	})

	t.Run("default deny", func(t *testing.T) {
		t.Parallel()
		r, err := binding.Compile(binding.Policy{
			Default: binding.Deny,
			Allow:   []string{"user.*", "user.address.**"},
			Deny:    []string{"user.role"},
		})
		require.NoError(t, err)

		assert.True(t, r.Allowed("user.name"))
		assert.True(t, r.Allowed("User.Name"))
		assert.True(t, r.Allowed("user.address.city"))
		assert.True(t, r.Allowed("user.address.geo.lat"))
		assert.True(t, r.Allowed("user.tags[3]"))
		assert.False(t, r.Allowed("user"))
		assert.False(t, r.Allowed("user.friend.name"))
		assert.False(t, r.Allowed("user.role"), "on both lists")
		assert.False(t, r.Allowed("other"), "on neither list")
		assert.Equal(t, binding.Deny, r.Default())
	})

	t.Run("context is never bound", func(t *testing.T) {
		t.Parallel()
		r, err := binding.Compile(binding.Policy{Allow: []string{"**"}})
		require.NoError(t, err)
		assert.False(t, r.Allowed("context"))
		assert.False(t, r.Allowed("Context.request"))
		assert.True(t, r.Allowed("contexts"))
		assert.False(t, binding.AllowAll().Allowed("context.x"))
		assert.True(t, binding.AllowAll().Allowed("name"))
	})
}

func TestCompile_InvalidGlob(t *testing.T) {
	t.Parallel()

	for _, glob := range []string{"user.", "user..name", "user.na me", "us*er", "***"} {
		_, err := binding.Compile(binding.Policy{Allow: []string{glob}})
		require.ErrorIs(t, err, binding.ErrInvalidGlob, glob)
	}
}

type account struct {
	Email string `validate:"required"`
	Name  string
	Admin bool
}

func TestManager(t *testing.T) {
	t.Parallel()

	m := binding.NewManager()
	require.NoError(t, m.Register(reflect.TypeFor[account](), binding.Policy{
		Default: binding.Deny,
		Allow:   []string{"name"},
	}))

	r, err := m.For(reflect.TypeFor[*account]())
	require.NoError(t, err)
	assert.True(t, r.Allowed("email"), "validated properties are allowed")
	assert.True(t, r.Allowed("name"))
	assert.False(t, r.Allowed("admin"))

	again, err := m.For(reflect.TypeFor[account]())
	require.NoError(t, err)
	assert.Same(t, r, again)

	t.Run("unregistered types allow all", func(t *testing.T) {
		t.Parallel()
		r, err := m.For(reflect.TypeFor[struct{ X int }]())
		require.NoError(t, err)
		assert.True(t, r.Allowed("x"))
	})

	t.Run("bad glob fails on register", func(t *testing.T) {
		t.Parallel()
		err := m.Register(reflect.TypeFor[struct{ Y int }](), binding.Policy{Deny: []string{"a..b"}})
		require.ErrorIs(t, err, binding.ErrInvalidGlob)
	})

	t.Run("bad metadata fails", func(t *testing.T) {
		t.Parallel()
		_, err := m.For(reflect.TypeFor[struct {
			Z string `validate:"nonsense"`
		}]())
		require.ErrorIs(t, err, binding.ErrMetadata)
	})
}

type sessionHolder interface{ Session() string }

type memSession struct{}

func (*memSession) Session() string { return "mem" }

type holder struct {
	Name    string
	Handle  sessionHolder
	Direct  *memSession
	Value   memSession
	Deep    **memSession
	Created int64
}

func TestRules_AllowedType(t *testing.T) {
	t.Parallel()

	m := binding.NewManager(binding.WithDeniedTypes(reflect.TypeFor[sessionHolder](), reflect.TypeFor[int64]()))
	r, err := m.For(reflect.TypeFor[holder]())
	require.NoError(t, err)

	ht := reflect.TypeFor[holder]()
	tests := []struct {
		field string
		want  bool
	}{
		{"Name", true},
		{"Handle", false},
		{"Direct", false},
		{"Value", false},
		{"Deep", false},
		{"Created", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			t.Parallel()
			f, ok := ht.FieldByName(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.want, r.AllowedType(f.Type))
		})
	}

	t.Run("no denied types", func(t *testing.T) {
		t.Parallel()
		r, err := binding.NewManager().For(ht)
		require.NoError(t, err)
		f, _ := ht.FieldByName("Handle")
		assert.True(t, r.AllowedType(f.Type))
	})
}
