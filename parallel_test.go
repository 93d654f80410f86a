package doclai

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowCache simulates a slow remote cache.
type slowCache struct {
	data    map[string]CacheEntry
	mu      sync.RWMutex
	delay   time.Duration
	lookups int64
}

func newSlowCache(delay time.Duration) *slowCache {
	return &slowCache{
		data:  make(map[string]CacheEntry),
		delay: delay,
	}
}

func (c *slowCache) Get(key string) (CacheEntry, bool) {
	atomic.AddInt64(&c.lookups, 1)
	time.Sleep(c.delay)
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *slowCache) Set(key string, entry CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry
	return nil
}

func (c *slowCache) put(lang, text, trans string) {
	_ = c.Set(CacheKeyFor(lang, text), CacheEntry{Text: text, Trans: trans})
}

func TestParallelCacheLookup_Basic(t *testing.T) {
	cache := newSlowCache(0)
	cache.put("en", "你好", "Hello")
	cache.put("en", "世界", "World")

	hits, misses := ParallelCacheLookup(cache, []string{"你好", "世界", "缺失"}, "en")

	if len(hits) != 2 {
		t.Errorf("Expected 2 hits, got %d", len(hits))
	}
	if hits["你好"] != "Hello" {
		t.Errorf("Expected 'Hello', got %q", hits["你好"])
	}
	if len(misses) != 1 || misses[0] != "缺失" {
		t.Errorf("Expected miss '缺失', got %v", misses)
	}
}

func TestParallelCacheLookup_Deduplication(t *testing.T) {
	cache := newSlowCache(0)

	_, misses := ParallelCacheLookup(cache, []string{"a", "a", "a"}, "en")

	if atomic.LoadInt64(&cache.lookups) != 1 {
		t.Errorf("Expected 1 lookup, got %d", cache.lookups)
	}
	if len(misses) != 1 {
		t.Errorf("Expected 1 miss, got %d", len(misses))
	}
}

func TestParallelCacheLookup_PreservesOrder(t *testing.T) {
	cache := newSlowCache(0)
	cache.put("en", "b", "B")

	_, misses := ParallelCacheLookup(cache, []string{"d", "b", "c", "a", "c"}, "en")

	want := []string{"d", "c", "a"}
	if len(misses) != len(want) {
		t.Fatalf("misses = %v, want %v", misses, want)
	}
	for i := range want {
		if misses[i] != want[i] {
			t.Errorf("misses[%d] = %q, want %q", i, misses[i], want[i])
		}
	}
}

func TestParallelCacheLookup_Parallelism(t *testing.T) {
	cache := newSlowCache(50 * time.Millisecond)
	texts := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	start := time.Now()
	ParallelCacheLookup(cache, texts, "en")
	elapsed := time.Since(start)

	// Sequential would take 500ms.
	if elapsed > 300*time.Millisecond {
		t.Errorf("Lookups do not appear parallel: took %v", elapsed)
	}
}

func TestCacheLookup_CollisionIsMiss(t *testing.T) {
	cache := newSlowCache(0)
	_ = cache.Set(CacheKeyFor("en", "text"), CacheEntry{Text: "other", Trans: "wrong"})

	hits, misses := CacheLookup(cache, []string{"text"}, "en")
	if len(hits) != 0 || len(misses) != 1 {
		t.Errorf("expected a miss on mismatched entry text, got hits=%v misses=%v", hits, misses)
	}
}

func TestCacheLookup_NilCache(t *testing.T) {
	hits, misses := CacheLookup(nil, []string{"x", "y", "x"}, "en")
	if len(hits) != 0 || len(misses) != 2 {
		t.Errorf("hits=%v misses=%v", hits, misses)
	}
}
