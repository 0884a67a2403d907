package urlbinding

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// EventParam is the parameter name that carries the event in a pattern.
const EventParam = "$event"

// Parameter is a named placeholder in a pattern.
type Parameter struct {
	Name    string
	Default string
}

// IsEvent reports whether p is the {$event} placeholder.
func (p Parameter) IsEvent() bool { return p.Name == EventParam }

func (p Parameter) String() string {
	if p.Default == "" {
		return p.Name
	}
	return p.Name + "=" + p.Default
}

// Component is either a literal or a parameter.
type Component struct {
	Literal string
	Param   *Parameter
}

// IsParam reports whether c is a parameter.
func (c Component) IsParam() bool { return c.Param != nil }

// Binding is a parsed URL binding pattern such as
// "/user/{id}/{$event}.json". Path is the literal part before the first
// parameter, Suffix a literal that ends the pattern after a parameter.
type Binding struct {
	path       string
	suffix     string
	components []Component
}

// Parse parses a binding pattern. Parameters are written {name} or
// {name=default} and \ escapes the next character. The literal characters
// that directly precede the first parameter and are not letters, digits
// or '_' belong to the components, not the path: "/user/{id}" has path
// "/user" and a leading "/" literal.
func Parse(pattern string) (*Binding, error) {
	if pattern == "" {
		return nil, parseError(pattern, "empty pattern")
	}

	var (
		path       *string
		components []Component
		buf        strings.Builder
		depth      int
		escape     bool
		last       rune
	)
	for _, c := range pattern {
		last = c
		if !escape {
			switch c {
			case '{':
				depth++
				if depth == 1 {
					s := buf.String()
					if path == nil {
						end := len(s)
						for end > 0 {
							r, size := utf8.DecodeLastRuneInString(s[:end])
							if isIdentPart(r) {
								break
							}
							end -= size
						}
						p := s[:end]
						path = &p
						if end < len(s) {
							components = append(components, Component{Literal: s[end:]})
						}
					} else if s != "" {
						components = append(components, Component{Literal: s})
					}
					buf.Reset()
					continue
				}
			case '}':
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					param, err := parseParameter(pattern, buf.String())
					if err != nil {
						return nil, err
					}
					components = append(components, Component{Param: param})
					buf.Reset()
					continue
				}
			case '\\':
				escape = true
				continue
			}
		}
		buf.WriteRune(c)
		escape = false
	}

	switch {
	case escape:
		return nil, parseError(pattern, "pattern must not end with an escape character")
	case depth > 0:
		return nil, parseError(pattern, "unterminated '{'")
	}
	if rest := buf.String(); rest != "" {
		switch {
		case path == nil:
			path = &rest
		case last == '}':
			param, err := parseParameter(pattern, rest)
			if err != nil {
				return nil, err
			}
			components = append(components, Component{Param: param})
		default:
			components = append(components, Component{Literal: rest})
		}
	}
	if path == nil {
		empty := ""
		path = &empty
	}

	b := &Binding{path: *path, components: components}
	if n := len(components); n > 0 && !components[n-1].IsParam() && len(b.Parameters()) > 0 {
		b.suffix = components[n-1].Literal
	}
	return b, nil
}

// MustParse is like Parse but panics on error.
func MustParse(pattern string) *Binding {
	b, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return b
}

func parseParameter(pattern, s string) (*Parameter, error) {
	var name, def strings.Builder
	cur := &name
	escape := false
	for _, c := range s {
		if !escape {
			switch c {
			case '\\':
				escape = true
				continue
			case '=':
				cur = &def
				continue
			}
		}
		cur.WriteRune(c)
		escape = false
	}
	p := &Parameter{Name: name.String(), Default: def.String()}
	if p.Name == "" {
		return nil, parseError(pattern, "parameter without a name")
	}
	if p.IsEvent() && p.Default != "" {
		return nil, parseError(pattern, "the {$event} parameter cannot have a default, use the default event instead")
	}
	return p, nil
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Path returns the literal prefix of the pattern.
func (b *Binding) Path() string { return b.path }

// Suffix returns the trailing literal, if the pattern has parameters.
func (b *Binding) Suffix() string { return b.suffix }

// Components returns the literals and parameters after Path.
func (b *Binding) Components() []Component { return b.components }

// Parameters returns the parameters in pattern order.
func (b *Binding) Parameters() []Parameter {
	var out []Parameter
	for _, c := range b.components {
		if c.IsParam() {
			out = append(out, *c.Param)
		}
	}
	return out
}

// HasEvent reports whether the pattern contains {$event}.
func (b *Binding) HasEvent() bool {
	for _, p := range b.Parameters() {
		if p.IsEvent() {
			return true
		}
	}
	return false
}

// String returns the normalized pattern.
func (b *Binding) String() string {
	var sb strings.Builder
	sb.WriteString(b.path)
	for _, c := range b.components {
		if c.IsParam() {
			sb.WriteByte('{')
			sb.WriteString(c.Param.String())
			sb.WriteByte('}')
		} else {
			sb.WriteString(c.Literal)
		}
	}
	return sb.String()
}

// Build renders the binding with values substituted for its parameters.
// Parameters without a value use their default; rendering stops at the
// first parameter that has neither, so optional trailing parts are left
// out. The suffix is always kept.
func (b *Binding) Build(values map[string]string) string {
	var sb strings.Builder
	sb.WriteString(b.path)
	var pending strings.Builder
	for _, c := range b.components {
		if !c.IsParam() {
			pending.WriteString(c.Literal)
			continue
		}
		v := values[c.Param.Name]
		if v == "" {
			v = c.Param.Default
		}
		if v == "" {
			break
		}
		sb.WriteString(pending.String())
		pending.Reset()
		sb.WriteString(escapeSegment(v))
	}
	if b.suffix != "" && !strings.HasSuffix(sb.String(), b.suffix) {
		sb.WriteString(b.suffix)
	}
	return sb.String()
}
