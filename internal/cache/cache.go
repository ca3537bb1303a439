// Package cache is a small in-process TTL cache for read paths.
package cache

import (
	"sync"
	"time"
)

const defaultMaxEntries = 10_000

// Cache holds values for a fixed TTL. When full, Set first drops expired
// entries and then the entry closest to expiry.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	m          map[K]entry[V]
	now        func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

type Option func(*options)

type options struct {
	maxEntries int
}

// WithMaxEntries bounds the cache size. n <= 0 keeps the default.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

func New[K comparable, V any](ttl time.Duration, opts ...Option) *Cache[K, V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	o := options{maxEntries: defaultMaxEntries}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[K, V]{
		ttl:        ttl,
		maxEntries: o.maxEntries,
		m:          make(map[K]entry[V]),
		now:        time.Now,
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	now := c.now()

	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}
	if now.Before(e.exp) {
		return e.val, true
	}

	c.mu.Lock()
	// a concurrent Set may have refreshed it
	if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
		delete(c.m, key)
	}
	c.mu.Unlock()
	return zero, false
}

func (c *Cache[K, V]) Set(key K, val V) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.m[key] = entry[V]{val: val, exp: now.Add(c.ttl)}
}

func (c *Cache[K, V]) evictLocked(now time.Time) {
	var (
		oldestKey K
		oldestExp time.Time
		found     bool
	)
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			continue
		}
		if !found || e.exp.Before(oldestExp) {
			oldestKey, oldestExp, found = k, e.exp, true
		}
	}
	if len(c.m) >= c.maxEntries && found {
		delete(c.m, oldestKey)
	}
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
