package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a saved scope waits for the follow-up request.
const DefaultTTL = 2 * time.Minute

// Scope carries values from one request to the request that follows a
// redirect: action beans (serialized as JSON) and user-facing messages.
type Scope struct {
	Beans    map[string]json.RawMessage `json:"beans,omitempty"`
	Messages []string                   `json:"messages,omitempty"`
}

// PutBean stores bean under key, usually the bean's URL binding.
func (s *Scope) PutBean(key string, bean any) error {
	data, err := json.Marshal(bean)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	if s.Beans == nil {
		s.Beans = make(map[string]json.RawMessage)
	}
	s.Beans[key] = data
	return nil
}

// Bean decodes the bean stored under key into dst. It reports false when
// no bean was stored.
func (s *Scope) Bean(key string, dst any) (bool, error) {
	data, ok := s.Beans[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, errors.Join(ErrUnmarshal, err)
	}
	return true, nil
}

// AddMessage appends a message for the next request.
func (s *Scope) AddMessage(msg string) {
	s.Messages = append(s.Messages, msg)
}

// Empty reports whether there is nothing to carry over.
func (s *Scope) Empty() bool {
	return s == nil || (len(s.Beans) == 0 && len(s.Messages) == 0)
}

// Manager saves scopes under random keys and hands each one out once.
type Manager struct {
	store Store[*Scope]
	ttl   time.Duration
}

// NewManager creates a Manager over store. A non-positive ttl selects
// DefaultTTL.
func NewManager(store Store[*Scope], ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl}
}

// Save stores scope and returns its key. Empty scopes are not stored and
// yield an empty key.
func (m *Manager) Save(ctx context.Context, scope *Scope) (string, error) {
	if scope.Empty() {
		return "", nil
	}
	key := uuid.NewString()
	if err := m.store.Set(ctx, key, scope, m.ttl); err != nil {
		return "", fmt.Errorf("flash: save scope: %w", err)
	}
	return key, nil
}

// Load returns the scope saved under key and removes it. Unknown, expired
// and malformed keys return ErrNotFound.
func (m *Manager) Load(ctx context.Context, key string) (*Scope, error) {
	if err := uuid.Validate(key); err != nil {
		return nil, ErrNotFound
	}
	scope, err := m.store.Take(ctx, key)
	if err != nil {
		return nil, err
	}
	return scope, nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
