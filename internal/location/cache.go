package location

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheKeyPrefix = "fitsquad_cached_location"
	cacheTTL       = 24 * time.Hour
)

// storageKey derives the per-owner storage key. Each owner holds at
// most one entry; writes overwrite it.
func storageKey(owner string) string {
	if owner == "" {
		return cacheKeyPrefix
	}
	return cacheKeyPrefix + "_" + owner
}

// Store is the persistent key-value storage backing the cache.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileStore keeps each key as a JSON file in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	return os.WriteFile(s.path(key), value, 0o644)
}

func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Cache wraps the store with the 24h freshness rule, one entry per
// owner. Reads and writes are lock-free; concurrent writers for the
// same owner race last-write-wins, which is acceptable at this
// freshness window.
type Cache struct {
	store Store
	now   func() time.Time
}

// NewCache creates a cache over the given store.
func NewCache(store Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Get returns the owner's cached location if present, fresh and in
// valid coordinate range. Expired or corrupt entries are deleted and
// nil is returned. Never fails loudly.
func (c *Cache) Get(owner string) *CachedLocation {
	key := storageKey(owner)
	raw, found, err := c.store.Get(key)
	if err != nil || !found {
		return nil
	}
	var loc CachedLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		_ = c.store.Delete(key)
		return nil
	}
	age := c.now().UnixMilli() - loc.Timestamp
	if age > cacheTTL.Milliseconds() || !loc.Valid() {
		_ = c.store.Delete(key)
		return nil
	}
	return &loc
}

// Put overwrites the owner's cached location with a fresh timestamp.
func (c *Cache) Put(owner string, coords Coordinates, name string) error {
	loc := CachedLocation{
		Coordinates: coords,
		Name:        name,
		Timestamp:   c.now().UnixMilli(),
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.store.Set(storageKey(owner), raw)
}
