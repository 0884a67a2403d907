package flash

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	expiresAt time.Time // zero: never
	value     V
	key       string
}

func (i *item[V]) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Memory keeps values in process memory. Expired values are dropped on
// access and by a background sweeper; when a capacity is configured the
// least recently used value is dropped to make room.
type Memory[V any] struct {
	items  map[string]*list.Element
	order  *list.List
	cfg    *memoryConfig
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewMemory creates an in-memory store. Call Close to stop the sweeper.
//
//	scopes := flash.NewMemory[*flash.Scope](
//	    flash.WithTTL(2 * time.Minute),
//	    flash.WithCapacity(10000),
//	)
//	defer scopes.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := defaultMemoryConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Memory[V]{
		items: make(map[string]*list.Element),
		order: list.New(),
		cfg:   cfg,
		done:  make(chan struct{}),
	}
	if cfg.sweepInterval > 0 {
		go m.sweep()
	}
	return m
}

// Get returns the value for key.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	elem, ok := m.lookup(key)
	if !ok {
		return zero, ErrNotFound
	}
	m.order.MoveToFront(elem)
	return elem.Value.(*item[V]).value, nil
}

// Set stores value under key, replacing any previous value.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.cfg.ttl
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if elem, ok := m.items[key]; ok {
		it := elem.Value.(*item[V])
		it.value, it.expiresAt = value, expiresAt
		m.order.MoveToFront(elem)
		return nil
	}

	if m.cfg.capacity > 0 && len(m.items) >= m.cfg.capacity {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.order.PushFront(&item[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Take returns the value for key and removes it.
func (m *Memory[V]) Take(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	elem, ok := m.lookup(key)
	if !ok {
		return zero, ErrNotFound
	}
	m.remove(elem)
	return elem.Value.(*item[V]).value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
	return nil
}

// Len returns the number of stored values, including expired values the
// sweeper has not reached yet.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the sweeper. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// lookup returns the live element for key, dropping it if expired.
// Caller holds the mutex.
func (m *Memory[V]) lookup(key string) (*list.Element, bool) {
	elem, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if elem.Value.(*item[V]).expired(time.Now()) {
		m.remove(elem)
		return nil, false
	}
	return elem, true
}

func (m *Memory[V]) sweep() {
	ticker := time.NewTicker(m.cfg.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.dropExpired(now)
		}
	}
}

func (m *Memory[V]) dropExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for elem := m.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*item[V]).expired(now) {
			m.remove(elem)
		}
		elem = prev
	}
}

// Caller holds the mutex.
func (m *Memory[V]) remove(elem *list.Element) {
	m.order.Remove(elem)
	delete(m.items, elem.Value.(*item[V]).key)
}

var _ Store[any] = (*Memory[any])(nil)
