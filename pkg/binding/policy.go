package binding

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrymomot/stride/pkg/validator"
)

// Decision is the outcome for properties no rule settles.
type Decision int

const (
	Allow Decision = iota
	Deny
)

func (d Decision) String() string {
	if d == Deny {
		return "deny"
	}
	return "allow"
}

// Policy declares which request parameters may be bound to a bean.
//
// Allow and Deny hold globs over dotted property names. Each entry may
// contain several globs separated by commas. * matches one name segment and
// ** matches one or more. Indexes are ignored: "items[2].qty" is checked as
// "items.qty".
type Policy struct {
	Default Decision
	Allow   []string
	Deny    []string
}

// Rules is a compiled Policy.
type Rules struct {
	def         Decision
	allow       []*regexp.Regexp
	deny        []*regexp.Regexp
	known       map[string]bool
	deniedTypes []reflect.Type
}

// alwaysDenied can never be bound, whatever the policy says.
var alwaysDenied = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^context(\..+)?$`),
}

var segmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Compile validates and compiles p.
func Compile(p Policy) (*Rules, error) {
	allow, err := compileGlobs(p.Allow)
	if err != nil {
		return nil, err
	}
	deny, err := compileGlobs(p.Deny)
	if err != nil {
		return nil, err
	}
	return &Rules{def: p.Default, allow: allow, deny: deny, known: map[string]bool{}}, nil
}

// AllowAll returns rules that deny only the always-denied properties.
func AllowAll() *Rules {
	return &Rules{def: Allow, known: map[string]bool{}}
}

// Allowed reports whether the parameter name may be bound.
//
// Properties with validation rules count as allowed. With a Deny default a
// property must be allowed and not denied; otherwise only a property that
// is denied and not allowed is refused.
func (r *Rules) Allowed(name string) bool {
	prop := validator.StripIndexes(name)
	if matchAny(alwaysDenied, prop) {
		return false
	}
	allowed := r.known[strings.ToLower(prop)] || matchAny(r.allow, prop)
	denied := matchAny(r.deny, prop)
	if r.def == Deny {
		return allowed && !denied
	}
	return allowed || !denied
}

// AllowedType reports whether a property of type t may be bound. Types
// denied by the Manager are refused, and so are types implementing a
// denied interface, through pointers or not.
func (r *Rules) AllowedType(t reflect.Type) bool {
	for ; ; t = t.Elem() {
		for _, dt := range r.deniedTypes {
			if t == dt || dt.Kind() == reflect.Interface && (t.Implements(dt) || reflect.PointerTo(t).Implements(dt)) {
				return false
			}
		}
		if t.Kind() != reflect.Pointer {
			return true
		}
	}
}

// Default returns the fallback decision.
func (r *Rules) Default() Decision { return r.def }

func (r *Rules) withKnown(names []string) *Rules {
	for _, n := range names {
		r.known[strings.ToLower(n)] = true
	}
	return r
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compileGlobs(entries []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, entry := range entries {
		for glob := range strings.SplitSeq(entry, ",") {
			glob = strings.TrimSpace(glob)
			if glob == "" {
				continue
			}
			re, err := compileGlob(glob)
			if err != nil {
				return nil, err
			}
			out = append(out, re)
		}
	}
	return out, nil
}

func compileGlob(glob string) (*regexp.Regexp, error) {
	parts := strings.Split(glob, ".")
	var b strings.Builder
	b.WriteString("(?i)^")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`\.`)
		}
		switch {
		case part == "**":
			b.WriteString(`[^.]+(?:\.[^.]+)*`)
		case part == "*":
			b.WriteString(`[^.]+`)
		case segmentRe.MatchString(part):
			b.WriteString(regexp.QuoteMeta(part))
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidGlob, glob)
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
