package urlbinding

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// Factory indexes bindings for request lookup. A binding is reachable by
// its exact paths (path, path + "/", path + suffix, and the pattern) and
// by prefix. Paths claimed by several bindings are remembered as
// conflicts. Factory is safe for concurrent use.
type Factory struct {
	mu        sync.RWMutex
	paths     map[string]*Binding
	conflicts map[string][]string
	prefixes  map[string][]*Binding
	order     []string // prefixes, longest first
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{
		paths:     make(map[string]*Binding),
		conflicts: make(map[string][]string),
		prefixes:  make(map[string][]*Binding),
	}
}

// Add indexes b.
func (f *Factory) Add(b *Binding) {
	f.mu.Lock()
	defer f.mu.Unlock()

	withSlash := b.path
	if !strings.HasSuffix(withSlash, "/") {
		withSlash += "/"
	}

	f.cachePath(b.path, b)
	if withSlash != b.path {
		f.cachePath(withSlash, b)
	}
	if b.suffix != "" {
		f.cachePath(b.path+b.suffix, b)
	}
	if s := b.String(); s != b.path {
		f.cachePath(s, b)
	}

	var withLiteral string
	if len(b.components) > 0 && !b.components[0].IsParam() {
		withLiteral = b.path + b.components[0].Literal
		f.cachePrefix(withLiteral, b)
	}
	if withSlash != withLiteral {
		f.cachePrefix(withSlash, b)
	}
}

func (f *Factory) cachePath(path string, b *Binding) {
	if list, ok := f.conflicts[path]; ok {
		f.conflicts[path] = append(list, b.String())
		return
	}
	if existing, ok := f.paths[path]; ok {
		if existing == b {
			return
		}
		delete(f.paths, path)
		f.conflicts[path] = []string{existing.String(), b.String()}
		return
	}
	f.paths[path] = b
}

func (f *Factory) cachePrefix(prefix string, b *Binding) {
	set, ok := f.prefixes[prefix]
	if !ok {
		f.order = append(f.order, prefix)
		slices.SortFunc(f.order, func(a, b string) int {
			if c := cmp.Compare(len(b), len(a)); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
	}
	if slices.Contains(set, b) {
		return
	}
	set = append(set, b)
	slices.SortFunc(set, func(x, y *Binding) int {
		if c := cmp.Compare(len(x.components), len(y.components)); c != 0 {
			return c
		}
		return strings.Compare(x.String(), y.String())
	})
	f.prefixes[prefix] = set
}

// Prototype returns the binding for uri without extracting values. It
// returns ErrNotFound when nothing matches and a *ConflictError when
// several bindings match equally well.
func (f *Factory) Prototype(uri string) (*Binding, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if b, ok := f.paths[uri]; ok {
		return b, nil
	}
	if list, ok := f.conflicts[uri]; ok {
		return nil, &ConflictError{Path: uri, Bindings: slices.Clone(list)}
	}

	var candidates []*Binding
	for _, prefix := range f.order {
		if strings.HasPrefix(uri, prefix) {
			candidates = f.prefixes[prefix]
			break
		}
	}
	switch len(candidates) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return candidates[0], nil
	}

	// The deepest literal match wins; among equals the fewest components.
	var (
		best          *Binding
		conflicts     []string
		maxIndex      int
		minComponents = int(^uint(0) >> 1)
	)
	for _, b := range candidates {
		idx := len(b.path)
		for _, c := range b.components {
			if c.IsParam() {
				continue
			}
			at := indexFrom(uri, c.Literal, idx)
			if at < 0 {
				break
			}
			idx = at + len(c.Literal)
		}

		n := len(b.components)
		switch {
		case idx > maxIndex:
			best, conflicts, maxIndex, minComponents = b, nil, idx, n
		case idx == maxIndex && n < minComponents:
			best, conflicts, minComponents = b, nil, n
		case idx == maxIndex && n == minComponents:
			if conflicts == nil && best != nil {
				conflicts = []string{best.String()}
			}
			conflicts = append(conflicts, b.String())
			best = nil
		}
	}
	if best == nil {
		return nil, &ConflictError{Path: uri, Bindings: conflicts}
	}
	return best, nil
}

// Match is a binding with the parameter values found in a request path.
type Match struct {
	Binding *Binding
	// Values holds every parameter with a value from the path or its
	// default, except {$event}.
	Values map[string]string
	// Event is the {$event} value, if any.
	Event string
}

// Match finds the binding for uri and extracts its parameter values.
// Trailing slashes and the binding's suffix are ignored.
func (f *Factory) Match(uri string) (*Match, error) {
	proto, err := f.Prototype(uri)
	if err != nil {
		return nil, err
	}
	return Extract(proto, uri), nil
}

// Extract reads the parameter values of b from uri.
func Extract(b *Binding, uri string) *Match {
	length := len(uri)
	for length > 0 && uri[length-1] == '/' {
		length--
	}
	if b.suffix != "" && strings.HasSuffix(uri[:length], b.suffix) {
		length -= len(b.suffix)
	}

	values := make(map[string]string)
	index := len(b.path)
	var current *Parameter
	i := 0
	for ; index < length && i < len(b.components); i++ {
		c := b.components[i]
		if c.IsParam() {
			current = c.Param
			continue
		}
		var value string
		if end := indexFrom(uri[:length], c.Literal, index); end >= 0 {
			value = uri[index:end]
			index = end + len(c.Literal)
		} else {
			value = uri[index:length]
			index = length
		}
		if current != nil && value != "" {
			values[current.Name] = value
			current = nil
		}
	}
	if index < length && current != nil {
		if value := uri[index:length]; value != "" {
			values[current.Name] = value
		}
	}

	m := &Match{Binding: b, Values: make(map[string]string)}
	for _, p := range b.Parameters() {
		v, ok := values[p.Name]
		if !ok || v == "" {
			v = p.Default
		}
		if v == "" {
			continue
		}
		if p.IsEvent() {
			m.Event = v
			continue
		}
		m.Values[p.Name] = v
	}
	return m
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return i + from
}
