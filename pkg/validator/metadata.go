package validator

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TagName is the struct tag holding validation rules.
const TagName = "validate"

// Metadata holds the validation rules of one bean property.
type Metadata struct {
	// Name is the dotted property path, built from form tags or field names.
	Name  string
	Label string
	// Required makes an empty or missing value an error. On restricts it
	// to some events.
	Required bool
	On       []string
	// Indexed is set when the path passes through a slice, array or map,
	// so the parameter carries an index: "items[0].qty".
	Indexed bool
	Ignore   bool
	Trim     bool

	MinLength, MaxLength *int
	Min, Max             *float64
	Mask                 *regexp.Regexp
}

// RequiredOn reports whether the property is required for event. An On
// list of plain names limits the check to those events; a list of !names
// applies it to every other event.
func (m *Metadata) RequiredOn(event string) bool {
	if !m.Required {
		return false
	}
	if len(m.On) == 0 {
		return true
	}
	negated := strings.HasPrefix(m.On[0], "!")
	for _, on := range m.On {
		if strings.TrimPrefix(on, "!") == event {
			return !negated
		}
	}
	return negated
}

// FieldLabel returns Label, or the last segment of Name.
func (m *Metadata) FieldLabel() string {
	if m.Label != "" {
		return m.Label
	}
	if i := strings.LastIndexByte(m.Name, '.'); i >= 0 {
		return m.Name[i+1:]
	}
	return m.Name
}

// Set is the validation metadata of one bean type, keyed by property path.
type Set struct {
	byName map[string]*Metadata
	names  []string
}

// Get returns the metadata for a property path. Indexes are ignored and
// the match is case-insensitive.
func (s *Set) Get(name string) (*Metadata, bool) {
	if s == nil {
		return nil, false
	}
	m, ok := s.byName[strings.ToLower(StripIndexes(name))]
	return m, ok
}

// Names returns the declared property paths, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return s.names
}

// Required returns the properties required for event, sorted by name.
func (s *Set) Required(event string) []*Metadata {
	var out []*Metadata
	for _, n := range s.Names() {
		if m := s.byName[strings.ToLower(n)]; m.RequiredOn(event) {
			out = append(out, m)
		}
	}
	return out
}

// StripIndexes removes bracketed indexes and keys: "rows[2].qty" becomes
// "rows.qty".
func StripIndexes(name string) string {
	if !strings.ContainsRune(name, '[') {
		return name
	}
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type metaEntry struct {
	set *Set
	err error
}

var metaCache sync.Map // reflect.Type -> metaEntry

// For returns the validation metadata of bean type t (a struct or a
// pointer to one). Results are cached per type.
func For(t reflect.Type) (*Set, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := metaCache.Load(t); ok {
		e := v.(metaEntry)
		return e.set, e.err
	}
	s := &Set{byName: make(map[string]*Metadata)}
	err := collect(s, t, "", false, map[reflect.Type]bool{})
	if err == nil {
		for _, m := range s.byName {
			s.names = append(s.names, m.Name)
		}
		slices.Sort(s.names)
	}
	v, _ := metaCache.LoadOrStore(t, metaEntry{set: s, err: err})
	e := v.(metaEntry)
	return e.set, e.err
}

var (
	timeType = reflect.TypeFor[time.Time]()
	textType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// nestedStruct returns the struct type reached through pointers, slices,
// arrays and maps, unless it is bound as a scalar.
func nestedStruct(t reflect.Type) (reflect.Type, bool) {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
			continue
		case reflect.Struct:
			if t == timeType || reflect.PointerTo(t).Implements(textType) {
				return nil, false
			}
			return t, true
		}
		return nil, false
	}
}

func collect(s *Set, t reflect.Type, prefix string, indexed bool, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	for i := range t.NumField() {
		f := t.Field(i)
		form := f.Tag.Get("form")
		if form == "-" {
			continue
		}
		if f.Anonymous && form == "" {
			if nt, ok := nestedStruct(f.Type); ok && f.Type.Kind() != reflect.Slice && f.Type.Kind() != reflect.Map {
				if err := collect(s, nt, prefix, indexed, seen); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		name := form
		if name == "" {
			name = lowerFirst(f.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		if tag, ok := f.Tag.Lookup(TagName); ok {
			m, err := parseTag(name, tag)
			if err != nil {
				return fmt.Errorf("%w: field %s.%s: %w", ErrInvalidTag, t.Name(), f.Name, err)
			}
			m.Indexed = indexed
			s.byName[strings.ToLower(name)] = m
		}

		if nt, ok := nestedStruct(f.Type); ok {
			if err := collect(s, nt, name, indexed || isContainer(f.Type), seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func isContainer(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// splitTag splits on commas not preceded by a backslash.
func splitTag(tag string) []string {
	var parts []string
	var b strings.Builder
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c == '\\' && i+1 < len(tag) && tag[i+1] == ',' {
			b.WriteByte(',')
			i++
			continue
		}
		if c == ',' {
			parts = append(parts, b.String())
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	return append(parts, b.String())
}

func parseTag(name, tag string) (*Metadata, error) {
	m := &Metadata{Name: name, Trim: true}
	for _, part := range splitTag(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasVal := strings.Cut(part, "=")
		switch key {
		case "required":
			m.Required = true
		case "ignore":
			m.Ignore = true
		case "on":
			if !hasVal || val == "" {
				return nil, errors.New("on needs a value")
			}
			m.On = strings.Split(val, "|")
			neg := strings.HasPrefix(m.On[0], "!")
			for _, on := range m.On {
				if strings.HasPrefix(on, "!") != neg {
					return nil, errors.New("on cannot mix events and negated events")
				}
			}
		case "trim":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("trim: %w", err)
			}
			m.Trim = b
		case "label":
			m.Label = val
		case "minlen", "maxlen":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%s: invalid length %q", key, val)
			}
			if key == "minlen" {
				m.MinLength = &n
			} else {
				m.MaxLength = &n
			}
		case "min", "max":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid number %q", key, val)
			}
			if key == "min" {
				m.Min = &f
			} else {
				m.Max = &f
			}
		case "mask":
			re, err := regexp.Compile("^(?:" + val + ")$")
			if err != nil {
				return nil, fmt.Errorf("mask: %w", err)
			}
			m.Mask = re
		default:
			return nil, fmt.Errorf("unknown rule %q", key)
		}
	}
	if len(m.On) > 0 && !m.Required {
		return nil, errors.New("on is only valid with required")
	}
	return m, nil
}
