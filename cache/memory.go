package cache

import (
	"sync"
	"time"
)

type memoryItem struct {
	entry     Entry
	timestamp time.Time
}

// InMemoryCache is a thread-safe in-memory cache with TTL support.
type InMemoryCache struct {
	items map[string]memoryItem
	mu    sync.RWMutex
	ttl   time.Duration
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &InMemoryCache{
		items: make(map[string]memoryItem),
		ttl:   ttl,
	}
}

func (c *InMemoryCache) expired(it memoryItem, now time.Time) bool {
	return c.ttl > 0 && now.Sub(it.timestamp) > c.ttl
}

// Get retrieves an entry. Expired entries are removed and reported missing.
func (c *InMemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return Entry{}, false
	}
	if c.expired(it, time.Now()) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return Entry{}, false
	}
	return it.entry, true
}

// Set stores an entry.
func (c *InMemoryCache) Set(key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = memoryItem{entry: entry, timestamp: time.Now()}
	return nil
}

// Len returns the number of entries in the cache (including expired ones).
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]memoryItem)
}

// Entries returns all non-expired entries.
func (c *InMemoryCache) Entries() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Entry, len(c.items))
	now := time.Now()
	for key, it := range c.items {
		if c.expired(it, now) {
			continue
		}
		result[key] = it.entry
	}
	return result
}
