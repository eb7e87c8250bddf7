// Package store provides an in-memory record store with write-through
// JSON snapshots, used as the persistence layer for all record kinds.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Collection is a concurrency-safe keyed store that preserves insertion
// order and mirrors its contents to a JSON snapshot file after every write.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   map[string]T
	order   []string
	name    string
	dataDir string
	logger  zerolog.Logger
}

// NewCollection creates a collection named name. When dataDir is non-empty,
// every mutation rewrites <dataDir>/<name>.json.
func NewCollection[T any](name, dataDir string, logger zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		items:   make(map[string]T),
		name:    name,
		dataDir: dataDir,
		logger:  logger.With().Str("collection", name).Logger(),
	}
}

// Upsert inserts or replaces the record under key. fn receives the existing
// record (when present) and returns the record to store, so callers can
// preserve identity fields across replacements.
func (c *Collection[T]) Upsert(key string, fn func(existing T, found bool) T) T {
	c.mu.Lock()
	existing, found := c.items[key]
	item := fn(existing, found)
	c.items[key] = item
	if !found {
		c.order = append(c.order, key)
	}
	c.snapshotLocked()
	c.mu.Unlock()
	return item
}

// Get returns the record under key.
func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	return item, ok
}

// List returns all records in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.items[key])
	}
	return out
}

// Delete removes the record under key and reports whether it existed.
func (c *Collection[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.snapshotLocked()
	return true
}

// Len returns the number of stored records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Load replaces the collection's contents with the records in the snapshot
// file, keyed by keyOf. A missing or malformed snapshot leaves the
// collection empty; neither is an error.
func (c *Collection[T]) Load(keyOf func(T) string) error {
	if c.dataDir == "" {
		return nil
	}
	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn().Err(err).Msg("skipping malformed snapshot")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]T, len(records))
	c.order = c.order[:0]
	for _, rec := range records {
		key := keyOf(rec)
		if _, dup := c.items[key]; !dup {
			c.order = append(c.order, key)
		}
		c.items[key] = rec
	}
	return nil
}

func (c *Collection[T]) path() string {
	return filepath.Join(c.dataDir, c.name+".json")
}

// snapshotLocked writes the full collection to disk. Snapshot failures are
// logged rather than surfaced so a full disk never fails a write.
func (c *Collection[T]) snapshotLocked() {
	if c.dataDir == "" {
		return
	}
	records := make([]T, 0, len(c.order))
	for _, key := range c.order {
		records = append(records, c.items[key])
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		c.logger.Error().Err(err).Msg("marshaling snapshot")
		return
	}
	if err := os.WriteFile(c.path(), data, 0o644); err != nil {
		c.logger.Error().Err(err).Msg("writing snapshot")
	}
}
