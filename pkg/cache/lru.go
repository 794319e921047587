// Package cache provides a small thread-safe LRU cache with optional
// per-cache TTL. sfclient uses it to memoize values that are expensive to
// rederive across repeated login cycles, such as parsed RSA private keys
// and public-key fingerprints.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value   V
	expires time.Time // zero means the entry never expires
}

// Cache is a bounded LRU map from K to V. When built with a non-zero TTL,
// entries also expire ttl after insertion; expired entries are dropped
// lazily on lookup. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[K, entry[V]]
	ttl time.Duration
}

// New builds a Cache holding at most size entries. A ttl of zero disables
// time-based expiry; entries then live until LRU eviction.
func New[K comparable, V any](size int, ttl time.Duration) (*Cache[K, V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache: size must be positive, got %d", size)
	}
	inner, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache[K, V]{lru: inner, ttl: ttl}, nil
}

// Get returns the live value for key. An entry past its expiry is removed
// and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, evicting the least-recently-used entry if the
// cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}
	c.lru.Add(key, e)
}

// GetOrCompute returns the cached value for key, calling compute and
// caching its result on a miss. compute errors are returned uncached, so a
// transient failure does not poison the entry.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Remove deletes key if present.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Len reports how many entries the cache currently holds, counting entries
// that have expired but not yet been looked up.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
