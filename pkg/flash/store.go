package flash

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Store keeps values for a limited time.
//
// TTL semantics for Set:
//   - Positive duration: the value expires after this duration
//   - Zero: use the store's default TTL
//   - Negative: the value never expires
type Store[V any] interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (V, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Take returns the value for key and removes it in one step, so a
	// value can be consumed only once.
	Take(ctx context.Context, key string) (V, error)

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Close releases background resources.
	Close() error
}

// Marshaler serializes values for stores that keep bytes.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}
