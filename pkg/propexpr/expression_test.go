package propexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/pkg/propexpr"
)

func nodes(e *propexpr.Expression) []string {
	var out []string
	for n := e.Root(); n != nil; n = n.Next() {
		out = append(out, n.String())
	}
	return out
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"dotted", "foo.bar.splat", []string{"foo", "bar", "splat"}},
		{"escaped quotes", `fo\"o\".bar.splat`, []string{`fo"o"`, "bar", "splat"}},
		{"bracket", "foo[index].bar", []string{"foo", "index", "bar"}},
		{"double bracket", "foo[index][bar]", []string{"foo", "index", "bar"}},
		{"single quoted", "foo['index'].bar", []string{"foo", "index", "bar"}},
		{"double quoted", `foo["index"].bar`, []string{"foo", "index", "bar"}},
		{"period inside brackets", "foo[1.5]", []string{"foo", "1.5"}},
		{"quoted period", "foo['a.b']", []string{"foo", "a.b"}},
		{"leading period ignored", ".foo..bar", []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := propexpr.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nodes(e))
			assert.Equal(t, tt.input, e.Source())
			assert.Equal(t, len(tt.want), e.Len())
		})
	}
}

func TestParse_TypedValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  any
	}{
		{"foo[123]", 123},
		{"foo[-7]", -7},
		{"foo[123.4]", 123.4},
		{"foo[123l]", int64(123)},
		{"foo[123L]", int64(123)},
		{"foo[123F]", float32(123)},
		{"foo[1.5f]", float32(1.5)},
		{"foo[false]", false},
		{"foo[tRue]", true},
		{"foo['x']", 'x'},
		{`foo["x"]`, "x"},
		{"foo['xy']", "xy"},
		{"foo[bar]", "bar"},
		{"foo['123']", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			e, err := propexpr.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Leaf().Value())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"foo['bar''splat']",
		`foo["bar"x]`,
		"foo['bar",
		`foo["bar`,
		"foo[bar",
		"foo\\",
		"",
	} {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			_, err := propexpr.Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, propexpr.ErrParse)

			var pe *propexpr.ParseError
			assert.ErrorAs(t, err, &pe)
			assert.Equal(t, input, pe.Expression)
		})
	}
}

func TestParse_Cached(t *testing.T) {
	t.Parallel()

	a, err := propexpr.Parse("cached.expr[0]")
	require.NoError(t, err)
	b, err := propexpr.Parse("cached.expr[0]")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestMustParse(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { propexpr.MustParse("a.b") })
	assert.Panics(t, func() { propexpr.MustParse("a['b") })
}

func TestNode_Links(t *testing.T) {
	t.Parallel()

	e := propexpr.MustParse("a.b.c")
	assert.Nil(t, e.Root().Prev())
	assert.Equal(t, "b", e.Root().Next().String())
	assert.Equal(t, "b", e.Leaf().Prev().String())
	assert.Nil(t, e.Leaf().Next())
}
