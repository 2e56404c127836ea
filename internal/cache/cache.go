package cache

import (
	"sync"
	"time"
)

// TTLSession is the default lifetime of a cached parse result
const TTLSession = 1 * time.Hour

// Entry holds a cached value with expiration
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache provides thread-safe TTL-based caching
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
}

// New creates a new cache whose entries live for ttl. A zero ttl means
// TTLSession.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = TTLSession
	}
	return &Cache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
	}
}

// Get retrieves a value from cache, returns nil if expired or not found
func (c *Cache) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || entry.IsExpired() {
		return nil
	}
	return entry.Value
}

// Set stores a value with the cache TTL
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Len returns the number of entries, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries and reports how many were dropped
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, v := range c.entries {
		if v.IsExpired() {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
