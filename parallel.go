package doclai

import (
	"sync"
)

// CacheLookup resolves texts against cache for targetLang. It returns the
// hits keyed by text, and the distinct misses in first-seen order.
// An entry whose stored source text differs from the requested text is
// treated as a miss.
func CacheLookup(cache TranslationCache, texts []string, targetLang string) (map[string]string, []string) {
	hits := make(map[string]string)
	var misses []string
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		if seen[text] {
			continue
		}
		seen[text] = true
		if cache != nil {
			if entry, ok := cache.Get(CacheKeyFor(targetLang, text)); ok && entryMatches(entry, text) {
				hits[text] = entry.Trans
				continue
			}
		}
		misses = append(misses, text)
	}
	return hits, misses
}

// ParallelCacheLookup performs the same lookup as CacheLookup with one
// goroutine per distinct text. Use it when the cache is remote.
func ParallelCacheLookup(cache TranslationCache, texts []string, targetLang string) (map[string]string, []string) {
	if cache == nil || len(texts) == 0 {
		return CacheLookup(nil, texts, targetLang)
	}

	type lookupResult struct {
		text  string
		trans string
		found bool
	}

	unique := make(map[string]bool)
	for _, text := range texts {
		unique[text] = true
	}

	results := make(chan lookupResult, len(unique))
	var wg sync.WaitGroup

	for text := range unique {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			entry, ok := cache.Get(CacheKeyFor(targetLang, t))
			if ok && entryMatches(entry, t) {
				results <- lookupResult{text: t, trans: entry.Trans, found: true}
				return
			}
			results <- lookupResult{text: t}
		}(text)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	hits := make(map[string]string)
	missed := make(map[string]bool)
	for r := range results {
		if r.found {
			hits[r.text] = r.trans
		} else {
			missed[r.text] = true
		}
	}

	// Preserve input order for the misses.
	var misses []string
	for _, text := range texts {
		if missed[text] {
			misses = append(misses, text)
			delete(missed, text)
		}
	}
	return hits, misses
}

// entryMatches guards against fingerprint collisions. Entries written
// without their source text are trusted.
func entryMatches(entry CacheEntry, text string) bool {
	return entry.Text == "" || entry.Text == text
}
