package engine

import (
	"sync"

	"github.com/TomasB/ip2geo/internal/geo"
)

// Cache stores successfully resolved records by lookup key. It is safe for
// concurrent use and is never evicted.
type Cache struct {
	mu    sync.RWMutex
	items map[string]geo.Record
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]geo.Record)}
}

// Get returns the record stored for key.
func (c *Cache) Get(key string) (geo.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.items[key]
	return rec, ok
}

// Put stores rec under key, replacing any previous value.
func (c *Cache) Put(key string, rec geo.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = rec
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]geo.Record)
}
