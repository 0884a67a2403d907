package internal

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/stride/pkg/binder"
	"github.com/dmitrymomot/stride/pkg/urlbinding"
)

// Resolver maps request paths and names to action beans and picks the
// event handler for a request. It is filled during App construction and
// read-only afterwards.
type Resolver struct {
	factory   *urlbinding.Factory
	byBinding map[*urlbinding.Binding]*ActionBean
	byPattern map[string]*ActionBean
	byName    map[string][]*ActionBean
	beans     []*ActionBean
	mu        sync.RWMutex
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		factory:   urlbinding.NewFactory(),
		byBinding: make(map[*urlbinding.Binding]*ActionBean),
		byPattern: make(map[string]*ActionBean),
		byName:    make(map[string][]*ActionBean),
	}
}

// Add registers b. Registration problems and duplicate bindings are
// returned as ErrRegistration.
func (r *Resolver) Add(b *ActionBean) error {
	if err := b.err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := b.binding.String()
	if other, dup := r.byPattern[key]; dup {
		return fmt.Errorf("%w: %s and %s are both bound to %q", ErrRegistration, other.typ, b.typ, key)
	}
	r.byPattern[key] = b
	r.byBinding[b.binding] = b
	lower := strings.ToLower(b.name)
	r.byName[lower] = append(r.byName[lower], b)
	r.beans = append(r.beans, b)
	r.factory.Add(b.binding)
	return nil
}

// Beans returns the registered beans in registration order.
func (r *Resolver) Beans() []*ActionBean {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.beans)
}

// Resolve finds the bean bound to path, a normalized request path, and
// the values its binding extracts from it.
func (r *Resolver) Resolve(path string) (*ActionBean, *urlbinding.Match, error) {
	m, err := r.factory.Match(path)
	if errors.Is(err, urlbinding.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrActionNotFound, path)
	}
	if err != nil {
		return nil, nil, err
	}

	r.mu.RLock()
	b := r.byBinding[m.Binding]
	r.mu.RUnlock()
	if b == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrActionNotFound, path)
	}
	return b, m, nil
}

// ResolveByName finds a bean by its short name, ignoring case. A name
// shared by several beans is not resolved.
func (r *Resolver) ResolveByName(name string) (*ActionBean, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byName[strings.ToLower(name)]
	switch len(list) {
	case 0:
		return nil, fmt.Errorf("%w: no bean named %q", ErrActionNotFound, name)
	case 1:
		return list[0], nil
	}
	types := make([]string, len(list))
	for i, b := range list {
		types[i] = b.typ.String()
	}
	return nil, fmt.Errorf("%w %q: %s", ErrAmbiguousName, name, strings.Join(types, ", "))
}

// eventRequest is what event resolution looks at.
type eventRequest struct {
	params url.Values
	match  *urlbinding.Match
	forced string
	// method is empty for forwards, which skip the method check.
	method string
	path   string
}

// resolveEvent picks the event handler for a request. The sources are
// tried in order: an event forced by a forward, the _eventName
// parameter, a parameter named after an event, the URL binding, and the
// default event.
func (b *ActionBean) resolveEvent(req eventRequest) (*eventSpec, error) {
	name, err := b.eventName(req)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = b.defaultEvent
	}
	e, ok := b.events[name]
	if !ok {
		if name == "" {
			return nil, fmt.Errorf("%w: %s declares no default event", ErrNoHandler, b.typ)
		}
		return nil, fmt.Errorf("%w: %s has no event %q", ErrNoHandler, b.typ, name)
	}
	if req.method != "" && len(e.methods) > 0 && !slices.Contains(e.methods, req.method) {
		return nil, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, req.method, name)
	}
	return e, nil
}

func (b *ActionBean) eventName(req eventRequest) (string, error) {
	if req.forced != "" {
		return req.forced, nil
	}
	if v := req.params.Get(binder.ParamEventName); v != "" {
		if _, ok := b.events[v]; ok {
			return v, nil
		}
	}

	// A URL event only counts when the bean knows it. Unknown names fall
	// back to the default event.
	var found []string
	if req.match != nil {
		if _, ok := b.events[req.match.Event]; ok {
			found = append(found, req.match.Event)
		}
	}
	for _, name := range b.eventOrder {
		if slices.Contains(found, name) {
			continue
		}
		if _, ok := req.params[name]; ok {
			found = append(found, name)
			continue
		}
		if _, ok := req.params[name+".x"]; ok {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMultipleEvents, strings.Join(found, ", "))
	}

	if !b.binding.HasEvent() {
		if name := b.eventFromPath(req.path); name != "" {
			return name, nil
		}
	}
	return "", nil
}

// eventFromPath reads a known event name from the segment that follows
// the binding, as in /user.action/save.
func (b *ActionBean) eventFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, b.binding.Path()+b.binding.Suffix())
	if !ok {
		rest, ok = strings.CutPrefix(path, b.binding.Path())
	}
	if !ok {
		return ""
	}
	rest = strings.TrimPrefix(rest, "/")
	segment, _, _ := strings.Cut(rest, "/")
	if _, known := b.events[segment]; known {
		return segment
	}
	return ""
}
