package propexpr

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// DefaultMaxIndex is the highest slice index an Evaluation addresses
// unless WithMaxIndex says otherwise. Slices grow to reach the index, so
// the limit bounds what a single request parameter can allocate.
const DefaultMaxIndex = 10000

// EvalOption configures an Evaluation.
type EvalOption func(*Evaluation)

// WithMaxIndex sets the highest slice index that may be addressed.
func WithMaxIndex(n int) EvalOption {
	return func(e *Evaluation) {
		if n >= 0 {
			e.maxIndex = n
		}
	}
}

type stepKind int

const (
	stepField stepKind = iota
	stepIndex
	stepMapKey
)

// step is a node with its static type information filled in.
type step struct {
	node  *Node
	typ   reflect.Type
	key   reflect.Value
	field reflect.StructField
	index int
	kind  stepKind
}

// Evaluation binds an Expression to a specific bean. It is not safe for
// concurrent use; create one per bean and expression.
type Evaluation struct {
	expr     *Expression
	bean     reflect.Value
	steps    []step
	field    *reflect.StructField
	maxIndex int
}

// Evaluate resolves the types along expr for bean, which must be a non-nil
// pointer. Types are taken from declarations where possible and from the
// live value when a node is interface-typed. A slice index above the
// limit is a *PropertyError wrapping ErrEvaluation.
func Evaluate(expr *Expression, bean any, opts ...EvalOption) (*Evaluation, error) {
	v := reflect.ValueOf(bean)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, ErrNilBean
	}
	e := &Evaluation{expr: expr, bean: v, maxIndex: DefaultMaxIndex}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.fillInTypes(); err != nil {
		return nil, err
	}
	return e, nil
}

// Get parses s and returns its value on bean. Missing intermediates yield nil.
func Get(bean any, s string) (any, error) {
	expr, err := Parse(s)
	if err != nil {
		return nil, err
	}
	e, err := Evaluate(expr, bean)
	if err != nil {
		return nil, err
	}
	return e.Value()
}

// Set parses s and assigns value on bean, creating intermediates as needed.
func Set(bean any, s string, value any) error {
	expr, err := Parse(s)
	if err != nil {
		return err
	}
	e, err := Evaluate(expr, bean)
	if err != nil {
		return err
	}
	return e.SetValue(value)
}

// Expression returns the evaluated expression.
func (e *Evaluation) Expression() *Expression { return e.expr }

// Type returns the declared type of the leaf property.
func (e *Evaluation) Type() reflect.Type {
	return e.steps[len(e.steps)-1].typ
}

// ScalarType returns the element type for slices and arrays, the value
// type for maps, and the leaf type otherwise. Pointers are dereferenced.
func (e *Evaluation) ScalarType() reflect.Type {
	return ScalarOf(e.Type())
}

// ScalarOf reports the scalar type backing t.
func ScalarOf(t reflect.Type) reflect.Type {
	t = deref(t)
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return t
		}
		return deref(t.Elem())
	}
	return t
}

// Path returns the canonical property path the expression resolves to:
// struct fields joined by periods, named by their form tag or their Go
// name with a lower-case first letter. Slice indexes and map keys are
// left out, so "user[password]", "user['password']" and "user.password"
// share the path "user.password", as do "items[2].qty" and "items.qty".
func (e *Evaluation) Path() string {
	var b strings.Builder
	for i := range e.steps {
		s := &e.steps[i]
		if s.kind != stepField {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(fieldName(s.field))
	}
	return b.String()
}

// Fields returns the struct fields the expression passes through, from
// the bean down to the leaf.
func (e *Evaluation) Fields() []reflect.StructField {
	var out []reflect.StructField
	for i := range e.steps {
		if e.steps[i].kind == stepField {
			out = append(out, e.steps[i].field)
		}
	}
	return out
}

// Field returns the struct field that declares the deepest named
// property in the expression, for access to its tags.
func (e *Evaluation) Field() (reflect.StructField, bool) {
	if e.field == nil {
		return reflect.StructField{}, false
	}
	return *e.field, true
}

// Value reads the leaf value. A nil pointer, missing map key or
// out-of-range index anywhere along the path yields (nil, nil).
func (e *Evaluation) Value() (any, error) {
	v, ok := e.lookup(len(e.steps))
	if !ok || !v.IsValid() {
		return nil, nil
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil, nil
	}
	return v.Interface(), nil
}

// SetValue assigns value to the leaf property. Nil pointers and maps on
// the path are allocated, and slices grow to reach the requested index.
func (e *Evaluation) SetValue(value any) error {
	return e.assign(e.bean, 0, true, func(dst reflect.Value) error {
		return assignTo(dst, value)
	})
}

// SetZero resets the leaf to its zero value. Slices are truncated and maps
// cleared in place; map entries addressed by key are deleted. Nothing is
// created if an intermediate is missing.
func (e *Evaluation) SetZero() error {
	return e.assign(e.bean, 0, false, func(dst reflect.Value) error {
		switch dst.Kind() {
		case reflect.Map:
			if !dst.IsNil() {
				dst.Clear()
			}
		case reflect.Slice:
			if !dst.IsNil() {
				dst.SetLen(0)
			}
		default:
			dst.SetZero()
		}
		return nil
	})
}

func (e *Evaluation) fillInTypes() error {
	t := e.bean.Type()
	for node := e.expr.root; node != nil; node = node.next {
		t = deref(t)
		if t.Kind() == reflect.Interface {
			inst, ok := e.lookup(len(e.steps))
			for ok && (inst.Kind() == reflect.Interface || inst.Kind() == reflect.Pointer) && !inst.IsNil() {
				inst = inst.Elem()
			}
			if !ok || !inst.IsValid() || inst.Kind() == reflect.Interface || inst.Kind() == reflect.Pointer {
				return fmt.Errorf("%w: cannot determine type of interface value before %q in %q",
					ErrEvaluation, node.raw, e.expr.source)
			}
			t = inst.Type()
		}

		s := step{node: node}
		switch t.Kind() {
		case reflect.Struct:
			f, ok := lookupField(t, node.raw)
			if !ok {
				return &PropertyError{Expression: e.expr.source, Property: node.raw, Type: t.String()}
			}
			s.kind, s.field, s.typ = stepField, f, f.Type
			e.field = &s.field
		case reflect.Slice, reflect.Array:
			idx, err := indexOf(node)
			if err == nil && t.Kind() == reflect.Slice && idx > e.maxIndex {
				err = fmt.Errorf("index %d exceeds the limit of %d", idx, e.maxIndex)
			}
			if err != nil {
				return &PropertyError{
					Err:        fmt.Errorf("%w: %v", ErrEvaluation, err),
					Expression: e.expr.source,
					Property:   node.raw,
					Type:       t.String(),
				}
			}
			s.kind, s.index, s.typ = stepIndex, idx, t.Elem()
		case reflect.Map:
			key, err := mapKey(node, t.Key())
			if err != nil {
				return fmt.Errorf("%w: key %q in %q: %v", ErrEvaluation, node.raw, e.expr.source, err)
			}
			s.kind, s.key, s.typ = stepMapKey, key, t.Elem()
		default:
			return &PropertyError{Expression: e.expr.source, Property: node.raw, Type: t.String()}
		}
		e.steps = append(e.steps, s)
		t = s.typ
	}
	return nil
}

// lookup walks the first n steps without creating anything.
func (e *Evaluation) lookup(n int) (reflect.Value, bool) {
	v := e.bean
	for i := range n {
		v = indirect(v)
		if !v.IsValid() {
			return reflect.Value{}, false
		}
		s := &e.steps[i]
		switch s.kind {
		case stepField:
			if v.Kind() != reflect.Struct {
				return reflect.Value{}, false
			}
			f, ok := fieldByIndex(v, s.field.Index, false)
			if !ok {
				return reflect.Value{}, false
			}
			v = f
		case stepIndex:
			if s.index >= v.Len() {
				return reflect.Value{}, false
			}
			v = v.Index(s.index)
		case stepMapKey:
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.MapIndex(s.key)
			if !v.IsValid() {
				return reflect.Value{}, false
			}
		}
	}
	return v, true
}

// assign descends from v through steps[i:] and applies leaf at the end.
// Map elements are not addressable, so they are copied out, modified and
// stored back on the way up.
func (e *Evaluation) assign(v reflect.Value, i int, create bool, leaf func(reflect.Value) error) error {
	if i == len(e.steps) {
		return leaf(v)
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			if !create {
				return nil
			}
			if v.Kind() == reflect.Interface || !v.CanSet() {
				return fmt.Errorf("%w: cannot instantiate %s at %q in %q",
					ErrEvaluation, v.Type(), e.steps[i].node.raw, e.expr.source)
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		if v.Kind() == reflect.Interface {
			inner := v.Elem()
			if inner.Kind() != reflect.Pointer {
				cp := reflect.New(inner.Type()).Elem()
				cp.Set(inner)
				if err := e.assign(cp, i, create, leaf); err != nil {
					return err
				}
				v.Set(cp)
				return nil
			}
			v = inner
			continue
		}
		v = v.Elem()
	}

	s := &e.steps[i]
	switch s.kind {
	case stepField:
		f, ok := fieldByIndex(v, s.field.Index, create)
		if !ok {
			return nil
		}
		return e.assign(f, i+1, create, leaf)

	case stepIndex:
		if s.index >= v.Len() {
			if !create {
				return nil
			}
			if v.Kind() == reflect.Array {
				return fmt.Errorf("%w: index %d out of range for %s in %q",
					ErrEvaluation, s.index, v.Type(), e.expr.source)
			}
			grown := reflect.MakeSlice(v.Type(), s.index+1, s.index+1)
			reflect.Copy(grown, v)
			v.Set(grown)
		}
		return e.assign(v.Index(s.index), i+1, create, leaf)

	case stepMapKey:
		if v.IsNil() {
			if !create {
				return nil
			}
			v.Set(reflect.MakeMap(v.Type()))
		}
		cur := v.MapIndex(s.key)
		if !create && i == len(e.steps)-1 {
			if cur.IsValid() {
				v.SetMapIndex(s.key, reflect.Value{})
			}
			return nil
		}
		if !cur.IsValid() && !create {
			return nil
		}
		tmp := reflect.New(v.Type().Elem()).Elem()
		if cur.IsValid() {
			tmp.Set(cur)
		}
		if err := e.assign(tmp, i+1, create, leaf); err != nil {
			return err
		}
		v.SetMapIndex(s.key, tmp)
	}
	return nil
}

func indexOf(n *Node) (int, error) {
	switch v := n.typed.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative index %d", v)
		}
		return v, nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative index %d", v)
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("index must be a non-negative integer")
}

func mapKey(n *Node, kt reflect.Type) (reflect.Value, error) {
	if kt.Kind() == reflect.String {
		return reflect.ValueOf(n.raw).Convert(kt), nil
	}
	if tv := reflect.ValueOf(n.typed); tv.Type() == kt {
		return tv, nil
	}

	ptr := reflect.New(kt)
	if tu, ok := ptr.Interface().(encoding.TextUnmarshaler); ok {
		if err := tu.UnmarshalText([]byte(n.raw)); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}

	key := ptr.Elem()
	switch kt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(n.raw, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		key.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(n.raw, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		key.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(n.raw, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		key.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(n.raw)
		if err != nil {
			return reflect.Value{}, err
		}
		key.SetBool(b)
	case reflect.Interface:
		if !reflect.TypeOf(n.typed).AssignableTo(kt) {
			return reflect.Value{}, fmt.Errorf("unsupported key type %s", kt)
		}
		key.Set(reflect.ValueOf(n.typed))
	default:
		return reflect.Value{}, fmt.Errorf("unsupported key type %s", kt)
	}
	return key, nil
}

// assignTo stores value into dst, converting where Go allows it.
func assignTo(dst reflect.Value, value any) error {
	if value == nil {
		dst.SetZero()
		return nil
	}
	return assignValue(dst, reflect.ValueOf(value))
}

func assignValue(dst, src reflect.Value) error {
	dt, st := dst.Type(), src.Type()
	switch {
	case st.AssignableTo(dt):
		dst.Set(src)
	case dt.Kind() == reflect.Pointer:
		p := reflect.New(dt.Elem())
		if err := assignValue(p.Elem(), src); err != nil {
			return err
		}
		dst.Set(p)
	case st.Kind() == reflect.Pointer:
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		return assignValue(dst, src.Elem())
	case (dt.Kind() == reflect.Slice || dt.Kind() == reflect.Array) &&
		(st.Kind() == reflect.Slice || st.Kind() == reflect.Array):
		n := src.Len()
		out := dst
		if dt.Kind() == reflect.Slice {
			out = reflect.MakeSlice(dt, n, n)
		} else if n > dst.Len() {
			return fmt.Errorf("%w: %d values do not fit %s", ErrEvaluation, n, dt)
		}
		for i := range n {
			if err := assignValue(out.Index(i), src.Index(i)); err != nil {
				return err
			}
		}
		if dt.Kind() == reflect.Slice {
			dst.Set(out)
		}
	case st.ConvertibleTo(dt) && !(dt.Kind() == reflect.String && isNumber(st.Kind())):
		dst.Set(src.Convert(dt))
	default:
		return fmt.Errorf("%w: cannot assign %s to %s", ErrEvaluation, st, dt)
	}
	return nil
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Complex128
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
