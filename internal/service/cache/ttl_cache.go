package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a TTLCache built without WithMaxEntries.
const DefaultMaxEntries = 10000

type ttlEntry struct {
	value   []byte
	expires time.Time // zero never expires
}

func (e ttlEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// TTLCache is an in-process BytesCache. When full, a write first drops
// expired entries and then, if still full, an arbitrary live one.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]ttlEntry
	maxEntries int
	now        func() time.Time
}

type TTLOption func(*TTLCache)

func WithMaxEntries(n int) TTLOption {
	return func(c *TTLCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func NewTTLCache(opts ...TTLOption) *TTLCache {
	c := &TTLCache{entries: make(map[string]ttlEntry), maxEntries: DefaultMaxEntries, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// SetBytes stores a copy of value; ttl <= 0 keeps it until evicted.
func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	e := ttlEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict(now)
	}
	c.entries[key] = e
	return nil
}

// evict runs with mu held.
func (c *TTLCache) evict(now time.Time) {
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	for k := range c.entries {
		if len(c.entries) < c.maxEntries {
			return
		}
		delete(c.entries, k)
	}
}

// Len counts stored entries, expired ones included until read or evicted.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
