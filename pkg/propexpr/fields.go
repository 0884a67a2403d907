package propexpr

import (
	"reflect"
	"strings"
	"sync"
)

// fieldSet indexes the bindable fields of a struct type by name.
type fieldSet struct {
	byName  map[string]reflect.StructField
	byLower map[string]reflect.StructField
}

var fieldCache sync.Map // map[reflect.Type]*fieldSet

// lookupField resolves name against the exported fields of struct type t,
// including fields promoted from embedded structs. The "form" tag wins,
// then the exact Go name, then a case-insensitive match.
func lookupField(t reflect.Type, name string) (reflect.StructField, bool) {
	fs := fieldsOf(t)
	if f, ok := fs.byName[name]; ok {
		return f, true
	}
	f, ok := fs.byLower[strings.ToLower(name)]
	return f, ok
}

func fieldsOf(t reflect.Type) *fieldSet {
	if v, ok := fieldCache.Load(t); ok {
		return v.(*fieldSet)
	}

	fs := &fieldSet{
		byName:  make(map[string]reflect.StructField),
		byLower: make(map[string]reflect.StructField),
	}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous && f.Tag.Get("form") == "" {
			continue
		}
		tag := f.Tag.Get("form")
		if tag == "-" {
			continue
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			fs.byName[name] = f
			fs.byLower[strings.ToLower(name)] = f
			continue
		}
		if _, taken := fs.byName[f.Name]; !taken {
			fs.byName[f.Name] = f
		}
		if _, taken := fs.byLower[strings.ToLower(f.Name)]; !taken {
			fs.byLower[strings.ToLower(f.Name)] = f
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, fs)
	return actual.(*fieldSet)
}

// fieldName is the name a field is known by in property paths.
func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("form"), ","); name != "" {
		return name
	}
	return strings.ToLower(f.Name[:1]) + f.Name[1:]
}

// fieldByIndex walks a promoted field path. With create set, nil embedded
// pointers are allocated; otherwise a nil pointer reports false.
func fieldByIndex(v reflect.Value, index []int, create bool) (reflect.Value, bool) {
	for n, i := range index {
		if n > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !create || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}
