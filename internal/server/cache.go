package server

import (
	"encoding/json"
	"sync"
	"time"
)

// cacheEntry holds a cached tool result with its timestamp.
type cacheEntry struct {
	items     []string
	timestamp time.Time
}

// ResultCache is a TTL cache for read-only tool results, keyed by tool name
// and arguments.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewResultCache creates a new cache. A ttl of 0 disables caching.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey joins the tool name with its arguments. json.Marshal sorts map
// keys, so equal argument sets produce equal keys.
func cacheKey(tool string, args map[string]interface{}) string {
	b, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return tool + "\x00" + string(b)
}

// Lookup returns cached items if within TTL, otherwise calls fetch and caches
// a successful result.
func (c *ResultCache) Lookup(tool string, args map[string]interface{}, fetch func() ([]string, error)) ([]string, error) {
	if c.ttl == 0 {
		return fetch()
	}
	key := cacheKey(tool, args)
	if key == "" {
		return fetch()
	}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		items := entry.items
		c.mu.Unlock()
		return items, nil
	}
	c.mu.Unlock()

	items, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{items: items, timestamp: c.now()}
	c.mu.Unlock()

	return items, nil
}

// InvalidateAll clears the entire cache.
func (c *ResultCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of cached entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
