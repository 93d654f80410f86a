package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/ZaguanLabs/doclai"
)

// FileCache keeps entries in memory and persists them to a flat JSON object
// {"<lang>:<md5>": {"text": ..., "trans": ...}} on Flush. Concurrent
// processes sharing the file are serialized by a lock file next to it, and
// each Flush merges with what is on disk; the flushing process wins on
// conflicting keys.
type FileCache struct {
	path string

	mu    sync.RWMutex
	data  map[string]Entry
	dirty map[string]struct{}
}

// OpenFileCache loads the cache file at path. A missing file is an empty
// cache; an unreadable one is an error.
func OpenFileCache(path string) (*FileCache, error) {
	c := &FileCache{
		path:  path,
		data:  make(map[string]Entry),
		dirty: make(map[string]struct{}),
	}
	data, err := readCacheFile(path)
	if err != nil {
		return nil, err
	}
	c.data = data
	return c, nil
}

func readCacheFile(path string) (map[string]Entry, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - configured cache location
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]Entry), nil
	}
	if err != nil {
		return nil, &doclai.CacheError{Message: "read " + path, Cause: err}
	}
	data := make(map[string]Entry)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &doclai.CacheError{Message: "decode " + path, Cause: err}
	}
	return data, nil
}

// Path returns the cache file location.
func (c *FileCache) Path() string {
	return c.path
}

// Get retrieves an entry.
func (c *FileCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[key]
	return e, ok
}

// Set stores an entry in memory until the next Flush.
func (c *FileCache) Set(key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry
	c.dirty[key] = struct{}{}
	return nil
}

// Len returns the number of entries.
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Entries returns a copy of all entries.
func (c *FileCache) Entries() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// Flush writes pending entries to disk.
func (c *FileCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dirty) == 0 {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &doclai.CacheError{Message: "create cache directory", Cause: err}
		}
	}

	lock := flock.New(c.path + ".lock")
	if err := lock.Lock(); err != nil {
		return &doclai.CacheError{Message: "lock " + c.path, Cause: err}
	}
	defer func() { _ = lock.Unlock() }()

	onDisk, err := readCacheFile(c.path)
	if err != nil {
		return err
	}
	for k := range c.dirty {
		onDisk[k] = c.data[k]
	}

	raw, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return &doclai.CacheError{Message: "encode cache", Cause: err}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return &doclai.CacheError{Message: "write " + tmp, Cause: err}
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return &doclai.CacheError{Message: "replace " + c.path, Cause: err}
	}

	// Pick up what other processes wrote meanwhile.
	c.data = onDisk
	c.dirty = make(map[string]struct{})
	return nil
}
