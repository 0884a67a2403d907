package propexpr

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	reInt     = regexp.MustCompile(`^-?\d+$`)
	reInt64   = regexp.MustCompile(`(?i)^(-?\d+)L$`)
	reFloat64 = regexp.MustCompile(`^-?\d+\.\d+$`)
	reFloat32 = regexp.MustCompile(`(?i)^(-?\d+\.?\d+)F$`)
	reBool    = regexp.MustCompile(`(?i)^(true|false)$`)
)

// terminators may follow a closing quote.
const terminators = ".[]"

// cache holds parsed expressions keyed by source string.
var cache sync.Map // map[string]*Expression

// Node is a single segment of a property expression.
type Node struct {
	next  *Node
	prev  *Node
	typed any
	raw   string
}

// String returns the node's text as it appeared in the expression.
func (n *Node) String() string { return n.raw }

// Value returns the node's typed value: int, int64, float64, float32,
// bool, rune (single-quoted single character) or string.
func (n *Node) Value() any { return n.typed }

// Next returns the following node, or nil for the leaf.
func (n *Node) Next() *Node { return n.next }

// Prev returns the preceding node, or nil for the root.
func (n *Node) Prev() *Node { return n.prev }

// Expression is an immutable parsed property expression such as
// "user.addresses[2].lines['home']". Safe for concurrent use.
type Expression struct {
	source string
	root   *Node
	leaf   *Node
}

// Parse returns the parsed expression for s. Results are cached, so
// repeated calls with the same string return the same *Expression.
func Parse(s string) (*Expression, error) {
	if v, ok := cache.Load(s); ok {
		return v.(*Expression), nil
	}
	e := &Expression{source: s}
	if err := e.parse(); err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(s, e)
	return actual.(*Expression), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Expression {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the original expression string.
func (e *Expression) Source() string { return e.source }

// Root returns the first node.
func (e *Expression) Root() *Node { return e.root }

// Leaf returns the last node.
func (e *Expression) Leaf() *Node { return e.leaf }

// Len returns the number of nodes.
func (e *Expression) Len() int {
	n := 0
	for node := e.root; node != nil; node = node.next {
		n++
	}
	return n
}

// String implements fmt.Stringer.
func (e *Expression) String() string { return e.source }

func (e *Expression) parse() error {
	var (
		buf       strings.Builder
		inSingle  bool
		inDouble  bool
		inBracket bool
		escaped   bool
	)

	fail := func(reason string) error {
		return &ParseError{Expression: e.source, Reason: reason}
	}

	closeQuote := func(rs []rune, i int) error {
		if i != len(rs)-1 && !strings.ContainsRune(terminators, rs[i+1]) {
			return fail("a quoted string must be followed by the end of the expression, a period or a square bracket")
		}
		return nil
	}

	rs := []rune(e.source)
	for i, ch := range rs {
		switch {
		case escaped:
			buf.WriteRune(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case !inSingle && !inDouble && ch == '\'':
			inSingle = true
		case inSingle && ch == '\'':
			inSingle = false
			if err := closeQuote(rs, i); err != nil {
				return err
			}
			value := buf.String()
			if r := []rune(value); len(r) == 1 {
				e.add(value, r[0])
			} else {
				e.add(value, value)
			}
			buf.Reset()
		case inSingle:
			buf.WriteRune(ch)
		case !inDouble && ch == '"':
			inDouble = true
		case inDouble && ch == '"':
			inDouble = false
			if err := closeQuote(rs, i); err != nil {
				return err
			}
			e.add(buf.String(), buf.String())
			buf.Reset()
		case inDouble:
			buf.WriteRune(ch)
		case !inBracket && ch == '[':
			if buf.Len() > 0 {
				e.add(buf.String(), nil)
				buf.Reset()
			}
			inBracket = true
		case inBracket:
			// Periods inside brackets belong to the value, e.g. foo[1.5].
			if ch == ']' {
				inBracket = false
				if buf.Len() > 0 {
					e.add(buf.String(), nil)
					buf.Reset()
				}
			} else {
				buf.WriteRune(ch)
			}
		case ch == '.':
			if buf.Len() > 0 {
				e.add(buf.String(), nil)
				buf.Reset()
			}
		default:
			buf.WriteRune(ch)
		}
	}

	switch {
	case escaped:
		return fail("expression ends with an escape character")
	case inSingle:
		return fail("expression terminates inside a single quoted string")
	case inDouble:
		return fail("expression terminates inside a double quoted string")
	case inBracket:
		return fail("expression terminates inside a square bracketed sub-expression")
	}
	if buf.Len() > 0 {
		e.add(buf.String(), nil)
	}
	if e.root == nil {
		return fail("expression is empty")
	}
	return nil
}

func (e *Expression) add(raw string, typed any) {
	if typed == nil {
		typed = typedValue(raw)
	}
	n := &Node{raw: raw, typed: typed}
	if e.leaf == nil {
		e.root, e.leaf = n, n
		return
	}
	n.prev = e.leaf
	e.leaf.next = n
	e.leaf = n
}

// typedValue infers a Go value from unquoted node text.
func typedValue(s string) any {
	switch {
	case reInt.MatchString(s):
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	case reInt64.MatchString(s):
		if v, err := strconv.ParseInt(reInt64.FindStringSubmatch(s)[1], 10, 64); err == nil {
			return v
		}
	case reFloat64.MatchString(s):
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	case reFloat32.MatchString(s):
		if v, err := strconv.ParseFloat(reFloat32.FindStringSubmatch(s)[1], 32); err == nil {
			return float32(v)
		}
	case reBool.MatchString(s):
		return strings.EqualFold(s, "true")
	}
	return s
}
