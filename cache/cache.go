// Package cache provides translation cache implementations: in memory, a
// JSON file shared between runs, and Redis.
package cache

import "github.com/ZaguanLabs/doclai"

// Entry is an alias to the main package type.
type Entry = doclai.CacheEntry

// TranslationCache is an alias to the main package interface.
type TranslationCache = doclai.TranslationCache

// FlushableCache is an alias to the main package interface.
type FlushableCache = doclai.FlushableCache

// Enumerable is implemented by caches that can list their entries.
type Enumerable interface {
	Entries() map[string]Entry
}

var (
	_ TranslationCache = (*InMemoryCache)(nil)
	_ FlushableCache   = (*FileCache)(nil)
	_ FlushableCache   = (*RedisCache)(nil)
	_ Enumerable       = (*InMemoryCache)(nil)
	_ Enumerable       = (*FileCache)(nil)
)
