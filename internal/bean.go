package internal

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/dmitrymomot/stride/pkg/binding"
	"github.com/dmitrymomot/stride/pkg/urlbinding"
)

// ActionBean describes a registered action bean type: its URL binding,
// its events and its validation and lifecycle hooks. Create one with Bean
// and pass it to WithBeans.
type ActionBean struct {
	typ          reflect.Type
	binding      *urlbinding.Binding
	policy       *binding.Policy
	events       map[string]*eventSpec
	pattern      string
	name         string
	defaultEvent string
	eventOrder   []string
	validations  []*validationSpec
	hooks        []*hookSpec
	errs         []error
	session      bool
}

// BeanOption configures an ActionBean.
type BeanOption func(*ActionBean)

type beanFunc func(bean any, c Context) (Resolution, error)

type eventSpec struct {
	owner               reflect.Type
	handler             beanFunc
	name                string
	methods             []string
	dontValidate        bool
	dontBind            bool
	ignoreBindingErrors bool
}

// EventOption configures a single event.
type EventOption func(*eventSpec)

// Methods restricts an event to the given HTTP methods. Other methods are
// answered with 405.
func Methods(methods ...string) EventOption {
	return func(e *eventSpec) {
		for _, m := range methods {
			e.methods = append(e.methods, strings.ToUpper(m))
		}
	}
}

// DontValidate binds the request but skips all validation for the event.
func DontValidate() EventOption {
	return func(e *eventSpec) { e.dontValidate = true }
}

// DontBind skips binding and validation for the event.
func DontBind() EventOption {
	return func(e *eventSpec) {
		e.dontBind = true
		e.dontValidate = true
	}
}

// IgnoreBindingErrors runs the event even when binding or validation
// produced errors. The errors stay available on the Context.
func IgnoreBindingErrors() EventOption {
	return func(e *eventSpec) { e.ignoreBindingErrors = true }
}

// Event registers fn as the handler of the named event.
func Event[T any](name string, fn func(*T, Context) (Resolution, error), opts ...EventOption) BeanOption {
	spec := &eventSpec{
		owner: reflect.TypeFor[T](),
		name:  name,
		handler: func(bean any, c Context) (Resolution, error) {
			return fn(bean.(*T), c)
		},
	}
	for _, opt := range opts {
		opt(spec)
	}
	return func(b *ActionBean) { b.addEvent(spec) }
}

// DefaultEvent registers fn like Event and makes it the handler used when
// the request names no event.
func DefaultEvent[T any](name string, fn func(*T, Context) (Resolution, error), opts ...EventOption) BeanOption {
	add := Event(name, fn, opts...)
	return func(b *ActionBean) {
		if b.defaultEvent != "" && b.defaultEvent != name {
			b.errs = append(b.errs, fmt.Errorf("default event declared twice: %q and %q", b.defaultEvent, name))
		}
		b.defaultEvent = name
		add(b)
	}
}

// ValidateWhen controls when a validation method runs.
type ValidateWhen int

const (
	// ValidateDefault runs only when binding produced no errors, unless
	// the App is configured to always invoke validation methods.
	ValidateDefault ValidateWhen = iota
	// ValidateAlways runs regardless of earlier errors.
	ValidateAlways
	// ValidateNoErrors runs only when there are no errors so far.
	ValidateNoErrors
)

type hookConfig struct {
	on       []string
	priority int
	when     ValidateWhen
}

// HookOption configures a validation method or a lifecycle hook.
type HookOption func(*hookConfig)

// On limits a hook to the listed events. Prefix a name with "!" to
// exclude it instead.
func On(events ...string) HookOption {
	return func(h *hookConfig) { h.on = append(h.on, events...) }
}

// Priority orders validation methods, lowest first.
func Priority(n int) HookOption {
	return func(h *hookConfig) { h.priority = n }
}

// When sets when a validation method runs.
func When(w ValidateWhen) HookOption {
	return func(h *hookConfig) { h.when = w }
}

type validationSpec struct {
	owner reflect.Type
	fn    func(bean any, c Context) error
	cfg   hookConfig
	order int
}

// ValidationMethod registers a custom validation method. It runs after
// binding and may add errors through c.ValidationErrors() or return them
// as ValidationErrors or a *validator.Error. Other errors abort the
// request.
func ValidationMethod[T any](fn func(*T, Context) error, opts ...HookOption) BeanOption {
	spec := &validationSpec{
		owner: reflect.TypeFor[T](),
		fn:    func(bean any, c Context) error { return fn(bean.(*T), c) },
	}
	for _, opt := range opts {
		opt(&spec.cfg)
	}
	return func(b *ActionBean) {
		spec.order = len(b.validations)
		b.validations = append(b.validations, spec)
	}
}

type hookSpec struct {
	owner reflect.Type
	fn    beanFunc
	cfg   hookConfig
	stage Stage
	after bool
}

// Before runs fn on the bean before the given lifecycle stage. A non-nil
// Resolution stops the request there.
func Before[T any](stage Stage, fn func(*T, Context) (Resolution, error), opts ...HookOption) BeanOption {
	return hook(stage, false, fn, opts)
}

// After runs fn on the bean after the given lifecycle stage. A non-nil
// Resolution replaces the stage's result.
func After[T any](stage Stage, fn func(*T, Context) (Resolution, error), opts ...HookOption) BeanOption {
	return hook(stage, true, fn, opts)
}

func hook[T any](stage Stage, after bool, fn func(*T, Context) (Resolution, error), opts []HookOption) BeanOption {
	spec := &hookSpec{
		owner: reflect.TypeFor[T](),
		stage: stage,
		after: after,
		fn: func(bean any, c Context) (Resolution, error) {
			return fn(bean.(*T), c)
		},
	}
	for _, opt := range opts {
		opt(&spec.cfg)
	}
	return func(b *ActionBean) { b.hooks = append(b.hooks, spec) }
}

// BindingPolicy sets which properties request parameters may write.
func BindingPolicy(p binding.Policy) BeanOption {
	return func(b *ActionBean) { b.policy = &p }
}

// StrictBinding denies binding to every property except those matching
// the allow globs and those with validation rules.
func StrictBinding(allow ...string) BeanOption {
	return BindingPolicy(binding.Policy{Default: binding.Deny, Allow: allow})
}

// SessionScope keeps one bean instance per client session instead of
// creating a new one per request.
func SessionScope() BeanOption {
	return func(b *ActionBean) { b.session = true }
}

// Name overrides the short name used by ResolveByName.
func Name(name string) BeanOption {
	return func(b *ActionBean) { b.name = name }
}

// Bean declares T as an action bean bound to pattern. An empty pattern
// derives the binding from T's package path and name.
//
//	stride.Bean[UserAction]("/user/{id}/{$event}",
//	    stride.DefaultEvent("view", (*UserAction).View),
//	    stride.Event("save", (*UserAction).Save, stride.Methods(http.MethodPost)),
//	)
func Bean[T any](pattern string, opts ...BeanOption) *ActionBean {
	b := &ActionBean{
		typ:     reflect.TypeFor[T](),
		pattern: pattern,
		events:  make(map[string]*eventSpec),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.finish()
	return b
}

func (b *ActionBean) addEvent(e *eventSpec) {
	if _, dup := b.events[e.name]; dup {
		b.errs = append(b.errs, fmt.Errorf("event %q declared twice", e.name))
		return
	}
	if e.name == "" {
		b.errs = append(b.errs, errors.New("event name is empty"))
		return
	}
	for _, m := range e.methods {
		if !validMethod(m) {
			b.errs = append(b.errs, fmt.Errorf("event %q: unknown HTTP method %q", e.name, m))
		}
	}
	b.events[e.name] = e
	b.eventOrder = append(b.eventOrder, e.name)
}

func (b *ActionBean) finish() {
	if b.typ.Kind() != reflect.Struct {
		b.errs = append(b.errs, fmt.Errorf("%s is not a struct type", b.typ))
		return
	}
	owners := make([]reflect.Type, 0, len(b.events)+len(b.validations)+len(b.hooks))
	for _, e := range b.events {
		owners = append(owners, e.owner)
	}
	for _, v := range b.validations {
		owners = append(owners, v.owner)
	}
	for _, h := range b.hooks {
		owners = append(owners, h.owner)
		if h.stage == ActionBeanResolution && !h.after {
			b.errs = append(b.errs, errors.New("a Before hook cannot run ahead of ActionBeanResolution"))
		}
	}
	for _, o := range owners {
		if o != b.typ {
			b.errs = append(b.errs, fmt.Errorf("method of %s registered on %s", o, b.typ))
		}
	}

	if len(b.events) == 0 {
		b.errs = append(b.errs, errors.New("no events declared"))
	}
	if b.defaultEvent == "" && len(b.events) == 1 {
		b.defaultEvent = b.eventOrder[0]
	}

	if b.pattern == "" {
		b.pattern = urlbinding.ConventionalPattern(b.typ.PkgPath(), b.typ.Name())
	}
	parsed, err := urlbinding.Parse(b.pattern)
	if err != nil {
		b.errs = append(b.errs, err)
	} else {
		b.binding = parsed
	}

	if b.name == "" {
		b.name = shortName(b.typ.Name())
	}
}

// err reports all registration problems of the bean.
func (b *ActionBean) err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrRegistration, b.typ, errors.Join(b.errs...))
}

// Type returns the bean's struct type.
func (b *ActionBean) Type() reflect.Type { return b.typ }

// Path returns the bean's URL binding without parameters.
func (b *ActionBean) Path() string {
	if b.binding == nil {
		return b.pattern
	}
	return b.binding.Path()
}

// Pattern returns the full URL binding.
func (b *ActionBean) Pattern() string { return b.pattern }

// Binding returns the parsed URL binding.
func (b *ActionBean) Binding() *urlbinding.Binding { return b.binding }

// Name returns the short name.
func (b *ActionBean) Name() string { return b.name }

// Events returns the event names in registration order.
func (b *ActionBean) Events() []string { return slices.Clone(b.eventOrder) }

// DefaultEventName returns the default event, or "".
func (b *ActionBean) DefaultEventName() string { return b.defaultEvent }

func (b *ActionBean) newInstance() any {
	return reflect.New(b.typ).Interface()
}

// sortedValidations returns the validation methods for event in run order.
func (b *ActionBean) sortedValidations(event string) []*validationSpec {
	var out []*validationSpec
	for _, v := range b.validations {
		if appliesTo(v.cfg.on, event) {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(x, y *validationSpec) int {
		if x.cfg.priority != y.cfg.priority {
			return x.cfg.priority - y.cfg.priority
		}
		return x.order - y.order
	})
	return out
}

// appliesTo reports whether an On list admits event. Names prefixed with
// "!" exclude; when plain names are present the event must be one of them.
func appliesTo(on []string, event string) bool {
	if len(on) == 0 {
		return true
	}
	positive := false
	for _, name := range on {
		if excluded, neg := strings.CutPrefix(name, "!"); neg {
			if excluded == event {
				return false
			}
			continue
		}
		positive = true
		if name == event {
			return true
		}
	}
	return !positive
}

var beanSuffixes = []string{"ActionBean", "Action", "Bean"}

func shortName(typeName string) string {
	for _, s := range beanSuffixes {
		if trimmed := strings.TrimSuffix(typeName, s); trimmed != typeName && trimmed != "" {
			return trimmed
		}
	}
	return typeName
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
