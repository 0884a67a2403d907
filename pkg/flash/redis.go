package flash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps values in Redis so they survive across instances. Values are
// serialized with a Marshaler (JSON by default).
type Redis[V any] struct {
	client    redis.UniversalClient
	marshaler Marshaler[V]
	prefix    string
	ttl       time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
	ttl    time.Duration
}

// WithPrefix namespaces every key as "prefix:key".
// Default: "flash".
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// WithRedisTTL sets the lifetime of values stored with a zero TTL.
// Default: DefaultTTL.
func WithRedisTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.ttl = d
	}
}

// NewRedis creates a Redis-backed store. A nil Marshaler selects JSON.
// The client's lifecycle stays with the caller.
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...RedisOption) *Redis[V] {
	cfg := &redisConfig{prefix: "flash", ttl: DefaultTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	if m == nil {
		m = jsonMarshaler[V]{}
	}
	return &Redis[V]{client: client, marshaler: m, prefix: cfg.prefix, ttl: cfg.ttl}
}

// Dial opens a Redis client from a redis:// or rediss:// URL and checks
// that the server answers.
func Dial(ctx context.Context, url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("flash: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("flash: ping redis: %w", err)
	}
	return client, nil
}

// Get returns the value for key.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	return r.decode(r.client.Get(ctx, r.key(key)).Bytes())
}

// Set stores value under key. A negative TTL stores without expiry.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Take returns the value for key and removes it atomically with GETDEL.
func (r *Redis[V]) Take(ctx context.Context, key string) (V, error) {
	return r.decode(r.client.GetDel(ctx, r.key(key)).Bytes())
}

// Delete removes key.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the client is owned by the caller.
func (r *Redis[V]) Close() error {
	return nil
}

func (r *Redis[V]) decode(data []byte, err error) (V, error) {
	var zero V
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return r.marshaler.Unmarshal(data)
}

func (r *Redis[V]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

var _ Store[any] = (*Redis[any])(nil)
