package cache

import (
	"context"
	"sync"
	"time"

	"bedrock_usage/internal/models"
)

// entry is a cache slot. readyCh is closed once value and err are set;
// until then the entry is pending and waiters block on the channel.
type entry struct {
	readyCh   chan struct{}
	value     *models.AggregateResult
	err       error
	expiresAt time.Time
}

func (e *entry) ready() bool {
	select {
	case <-e.readyCh:
		return true
	default:
		return false
	}
}

// MemoryCache is an in-process ResultCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrCompute returns the cached value for key, or runs compute and
// caches its result. While a compute is in flight, other callers for
// the same key wait for it instead of starting their own.
func (c *MemoryCache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*models.AggregateResult, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if !e.ready() {
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-e.readyCh:
			}
			if e.err != nil {
				return nil, e.err
			}
			return e.value, nil
		}
		if e.err == nil && c.now().Before(e.expiresAt) {
			value := e.value
			c.mu.Unlock()
			return value, nil
		}
		// expired, recompute below
	}

	e := &entry{readyCh: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	value, err := compute(ctx)

	c.mu.Lock()
	e.value = value
	e.err = err
	e.expiresAt = c.now().Add(c.ttl)
	if err != nil && c.entries[key] == e {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	close(e.readyCh)

	return value, err
}

// Clear drops all entries. In-flight computes still deliver to their
// waiters but their results are not retained.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Close is a no-op for the memory cache.
func (c *MemoryCache) Close() error {
	return nil
}
