package validator_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/pkg/validator"
)

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	t.Run("add and query", func(t *testing.T) {
		t.Parallel()
		ve := validator.ValidationErrors{}
		ve.Add("email", validator.NewError("", validator.KeyRequired, nil))
		ve.AddGlobal(validator.NewMessage("", "try again"))

		assert.True(t, ve.Has("email"))
		assert.Equal(t, "email", ve.Get("email")[0].Field)
		assert.Equal(t, validator.GlobalKey, ve.Global()[0].Field)
		assert.True(t, ve.HasFieldErrors())
		assert.False(t, ve.Empty())
		assert.Equal(t, []string{"email", validator.GlobalKey}, ve.Fields())
	})

	t.Run("global only", func(t *testing.T) {
		t.Parallel()
		ve := validator.ValidationErrors{}
		ve.AddGlobal(validator.NewMessage("", "boom"))
		assert.False(t, ve.HasFieldErrors())
		assert.Equal(t, "validation failed: boom", ve.Error())
	})

	t.Run("merge keeps order", func(t *testing.T) {
		t.Parallel()
		a := validator.ValidationErrors{}
		a.Add("x", validator.NewMessage("", "1"))
		b := validator.ValidationErrors{}
		b.Add("x", validator.NewMessage("", "2"))
		a.Merge(b)
		require.Len(t, a.Get("x"), 2)
		assert.Equal(t, "2", a.Get("x")[1].Message)
	})

	t.Run("travels as error", func(t *testing.T) {
		t.Parallel()
		ve := validator.ValidationErrors{}
		ve.Add("x", validator.NewMessage("", "bad"))
		err := fmt.Errorf("wrapped: %w", ve)
		assert.True(t, validator.IsValidationError(err))
		assert.Equal(t, ve, validator.ExtractValidationErrors(err))
		assert.False(t, validator.IsValidationError(errors.New("other")))
		assert.Nil(t, validator.ExtractValidationErrors(errors.New("other")))
	})

	t.Run("prepare runs once", func(t *testing.T) {
		t.Parallel()
		e := validator.NewError("name", validator.KeyMask, nil)
		e.Value = "<b>"
		encode := func(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "<", "&lt;"), ">", "&gt;") }
		e.Prepare("/user", "User", encode)
		e.Prepare("/other", "Other", encode)
		assert.True(t, e.Prepared())
		assert.Equal(t, "&lt;b&gt;", e.Value)
		assert.Equal(t, "/user", e.ActionPath)
		assert.Equal(t, "User", e.BeanName)
	})
}

func TestValidationErrors_Translate(t *testing.T) {
	t.Parallel()

	translate := func(key string, values map[string]any) string {
		if key == validator.KeyRequired {
			return fmt.Sprintf("%v is required", values["field"])
		}
		return key
	}

	ve := validator.ValidationErrors{}
	ve.Add("email", validator.NewError("", validator.KeyRequired, map[string]any{"field": "Email"}))
	ve.Add("name", validator.NewMessage("", "literal"))

	ve.Translate(nil)
	assert.Equal(t, validator.KeyRequired, ve.Get("email")[0].Message)

	ve.Translate(translate)
	assert.Equal(t, "Email is required", ve.Get("email")[0].Message)
	assert.Equal(t, "literal", ve.Get("name")[0].Message)
}

type address struct {
	Zip    string `validate:"required,mask=\\d{5}"`
	Street string `validate:"minlen=2,maxlen=40,trim=false"`
}

type Audit struct {
	Note string `validate:"maxlen=10"`
}

type item struct {
	Qty  int    `validate:"required,min=1,max=99"`
	Name string `form:"title" validate:"required,label=Item name"`
}

type signup struct {
	Audit
	Email    string            `validate:"required,on=save|submit"`
	Password string            `validate:"required,on=!cancel"`
	Secret   string            `validate:"ignore"`
	Home     *address          `form:"home"`
	Items    []item
	Places   map[string]address
	When     time.Time `validate:"required"`
	Skipped  string    `form:"-" validate:"required"`
	Self     *signup
}

func TestFor(t *testing.T) {
	t.Parallel()

	set, err := validator.For(reflect.TypeFor[*signup]())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"email", "home.street", "home.zip", "items.qty", "items.title",
		"note", "password", "places.street", "places.zip", "secret", "when",
	}, set.Names())

	t.Run("lookup ignores indexes and case", func(t *testing.T) {
		t.Parallel()
		m, ok := set.Get("items[3].Qty")
		require.True(t, ok)
		require.NotNil(t, m.Min)
		assert.InDelta(t, 1, *m.Min, 0)
		_, ok = set.Get("places['x'].zip")
		assert.True(t, ok)
		_, ok = set.Get("unknown")
		assert.False(t, ok)
	})

	t.Run("rules", func(t *testing.T) {
		t.Parallel()
		street, _ := set.Get("home.street")
		assert.False(t, street.Trim)
		assert.Equal(t, 2, *street.MinLength)
		zip, _ := set.Get("home.zip")
		assert.True(t, zip.Trim)
		assert.True(t, zip.Mask.MatchString("12345"))
		assert.False(t, zip.Mask.MatchString("123456"), "masks match the whole value")
		secret, _ := set.Get("secret")
		assert.True(t, secret.Ignore)
		title, _ := set.Get("items.title")
		assert.Equal(t, "Item name", title.FieldLabel())
		assert.Equal(t, "zip", zip.FieldLabel())
		assert.False(t, zip.Indexed)
		qty, _ := set.Get("items.qty")
		assert.True(t, qty.Indexed)
		placeZip, _ := set.Get("places.zip")
		assert.True(t, placeZip.Indexed)
	})

	t.Run("required on events", func(t *testing.T) {
		t.Parallel()
		names := func(event string) []string {
			var out []string
			for _, m := range set.Required(event) {
				out = append(out, m.Name)
			}
			return out
		}
		assert.Equal(t, []string{"email", "home.zip", "items.qty", "items.title", "password", "places.zip", "when"}, names("save"))
		assert.Equal(t, []string{"home.zip", "items.qty", "items.title", "places.zip", "when"}, names("cancel"))
		assert.Equal(t, []string{"home.zip", "items.qty", "items.title", "password", "places.zip", "when"}, names("view"))
	})

	t.Run("cached", func(t *testing.T) {
		t.Parallel()
		again, err := validator.For(reflect.TypeFor[signup]())
		require.NoError(t, err)
		assert.Same(t, set, again)
	})
}

func TestFor_InvalidTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"unknown rule", reflect.TypeFor[struct {
			A string `validate:"requird"`
		}]()},
		{"bad length", reflect.TypeFor[struct {
			A string `validate:"minlen=x"`
		}]()},
		{"bad mask", reflect.TypeFor[struct {
			A string `validate:"mask=("`
		}]()},
		{"mixed on", reflect.TypeFor[struct {
			A string `validate:"required,on=a|!b"`
		}]()},
		{"on without required", reflect.TypeFor[struct {
			A string `validate:"on=a"`
		}]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := validator.For(tt.typ)
			require.ErrorIs(t, err, validator.ErrInvalidTag)
		})
	}
}

func TestMetadata_Checks(t *testing.T) {
	t.Parallel()

	type form struct {
		Code  string  `validate:"minlen=2,maxlen=4,mask=[a-z]+\\,?"`
		Score float64 `validate:"min=1.5,max=10"`
	}
	set, err := validator.For(reflect.TypeFor[form]())
	require.NoError(t, err)
	code, _ := set.Get("code")
	score, _ := set.Get("score")

	assert.Empty(t, code.CheckString("code", ""))
	assert.Empty(t, code.CheckString("code", "ab,"))

	errs := code.CheckString("code", "A")
	require.Len(t, errs, 2)
	assert.Equal(t, validator.KeyMinLength, errs[0].TranslationKey)
	assert.Equal(t, 2, errs[0].TranslationValues["min"])
	assert.Equal(t, "A", errs[0].Value)
	assert.Equal(t, validator.KeyMask, errs[1].TranslationKey)

	errs = code.CheckString("code", "abcde")
	require.Len(t, errs, 1)
	assert.Equal(t, validator.KeyMaxLength, errs[0].TranslationKey)

	assert.Empty(t, score.CheckValue("score", 5.0))
	assert.Empty(t, score.CheckValue("score", "not a number"))
	assert.Empty(t, score.CheckValue("score", (*int)(nil)))

	errs = score.CheckValue("score", 1)
	require.Len(t, errs, 1)
	assert.Equal(t, validator.KeyMinValue, errs[0].TranslationKey)

	errs = score.CheckValue("score", []int{0, 5, 11})
	require.Len(t, errs, 2)
	assert.Equal(t, validator.KeyMaxValue, errs[1].TranslationKey)

	req := score.RequiredError("score")
	assert.Equal(t, validator.KeyRequired, req.TranslationKey)
	assert.Equal(t, "score", req.TranslationValues["field"])
}

func TestStripIndexes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "rows.qty", validator.StripIndexes("rows[2].qty"))
	assert.Equal(t, "m.a", validator.StripIndexes("m['x[1]'].a"))
	assert.Equal(t, "plain", validator.StripIndexes("plain"))
}
