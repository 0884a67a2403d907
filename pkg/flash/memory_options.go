package flash

import "time"

// MemoryOption configures a Memory store.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	ttl           time.Duration
	sweepInterval time.Duration
	capacity      int
}

func defaultMemoryConfig() *memoryConfig {
	return &memoryConfig{
		ttl:           DefaultTTL,
		sweepInterval: 30 * time.Second,
	}
}

// WithTTL sets the lifetime of values stored with a zero TTL.
// Default: DefaultTTL.
func WithTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.ttl = d
	}
}

// WithSweepInterval sets how often expired values are dropped in the
// background. Zero disables the sweeper.
// Default: 30 seconds.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.sweepInterval = d
	}
}

// WithCapacity caps the number of stored values. Zero means unlimited.
func WithCapacity(n int) MemoryOption {
	return func(c *memoryConfig) {
		c.capacity = n
	}
}
