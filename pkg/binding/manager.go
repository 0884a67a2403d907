package binding

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/dmitrymomot/stride/pkg/validator"
)

// Manager holds the binding rules of each bean type. Rules are compiled
// once per type, on first use or on Register.
type Manager struct {
	policies    sync.Map // reflect.Type -> Policy
	rules       sync.Map // reflect.Type -> *Rules
	deniedTypes []reflect.Type
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDeniedTypes refuses every property of one of types, whatever its
// name and whatever the policy says. Interface types also refuse the
// types implementing them.
func WithDeniedTypes(types ...reflect.Type) ManagerOption {
	return func(m *Manager) { m.deniedTypes = append(m.deniedTypes, types...) }
}

// NewManager creates an empty Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register sets the policy for bean type t and compiles it right away so
// a bad glob fails at startup.
func (m *Manager) Register(t reflect.Type, p Policy) error {
	t = structType(t)
	r, err := m.compile(t, p)
	if err != nil {
		return err
	}
	m.policies.Store(t, p)
	m.rules.Store(t, r)
	return nil
}

// For returns the rules of bean type t. Types without a registered policy
// allow everything except the always-denied properties.
func (m *Manager) For(t reflect.Type) (*Rules, error) {
	t = structType(t)
	if r, ok := m.rules.Load(t); ok {
		return r.(*Rules), nil
	}
	p := Policy{Default: Allow}
	if v, ok := m.policies.Load(t); ok {
		p = v.(Policy)
	}
	r, err := m.compile(t, p)
	if err != nil {
		return nil, err
	}
	actual, _ := m.rules.LoadOrStore(t, r)
	return actual.(*Rules), nil
}

func (m *Manager) compile(t reflect.Type, p Policy) (*Rules, error) {
	r, err := Compile(p)
	if err != nil {
		return nil, fmt.Errorf("binding: %s: %w", t, err)
	}
	meta, err := validator.For(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	r.deniedTypes = m.deniedTypes
	return r.withKnown(meta.Names()), nil
}

func structType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
