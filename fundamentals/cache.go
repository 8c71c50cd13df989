package fundamentals

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// entry wraps a cached value with the time it was fetched, mirroring the
// persisted layout's `{ data, timestamp_ms }` shape.
type entry[T any] struct {
	Data        T     `json:"data"`
	TimestampMs int64 `json:"timestamp_ms"`
}

// cache is a symbol-keyed, TTL-expiring, disk-persisted cache for one
// fundamentals accessor. Each accessor owns its own cache instance and
// mutex, so a slow write to one file never blocks another.
type cache[T any] struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	log     *slog.Logger
	entries map[string]entry[T]
}

func newCache[T any](path string, ttl time.Duration, log *slog.Logger) *cache[T] {
	c := &cache[T]{path: path, ttl: ttl, log: log, entries: make(map[string]entry[T])}
	c.load()
	return c
}

// load reads the cache file if present. A corrupted file is logged and
// discarded rather than treated as fatal; the cache simply starts empty
// and the next get forces a refetch.
func (c *cache[T]) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var entries map[string]entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		c.log.Warn("discarding corrupted fundamentals cache", "path", c.path, "err", err)
		return
	}
	c.entries = entries
}

// get returns the cached value for symbol if present and younger than ttl.
func (c *cache[T]) get(symbol string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[symbol]
	if !ok {
		var zero T
		return zero, false
	}
	if time.Since(time.UnixMilli(e.TimestampMs)) > c.ttl {
		var zero T
		return zero, false
	}
	return e.Data, true
}

// put stores data for symbol and persists the cache to disk. Persistence
// failures are logged, not returned: the in-memory cache is still valid
// for the rest of this process's lifetime.
func (c *cache[T]) put(symbol string, data T) {
	c.mu.Lock()
	c.entries[symbol] = entry[T]{Data: data, TimestampMs: time.Now().UnixMilli()}
	snapshot := make(map[string]entry[T], len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.Unlock()

	raw, err := json.Marshal(snapshot)
	if err != nil {
		c.log.Warn("failed to marshal fundamentals cache", "path", c.path, "err", err)
		return
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		c.log.Warn("failed to persist fundamentals cache", "path", c.path, "err", err)
	}
}
