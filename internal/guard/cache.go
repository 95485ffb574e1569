// Package guard implements the per-adapter reliability shell shared by
// every source client: a TTL cache, a token-bucket rate limiter, and a
// circuit breaker, each owned exclusively by one adapter instance.
package guard

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// CacheStats describes the cache's current introspection counters.
type CacheStats struct {
	Enabled bool
	TTL     time.Duration
	Size    int
	Hits    int64
	Misses  int64
}

// HitRate returns Hits / (Hits + Misses), or 0 when there have been no
// lookups yet.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type cacheEntry struct {
	value    []byte
	storedAt time.Time
}

// Cache is an in-process TTL cache. It is never shared across adapter
// instances; each source client constructs its own.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	enabled bool
	hits    int64
	misses  int64
}

// NewCache constructs a Cache with the given TTL. A zero or negative
// ttl disables caching: Get always misses and Set is a no-op.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		enabled: ttl > 0,
	}
}

// Key builds a deterministic MD5-based cache key from the series
// identity and window, namespaced to avoid collisions across adapters
// that share a process.
func Key(namespace, seriesID string, start, end time.Time) string {
	raw := fmt.Sprintf("%s|%s|%s|%s", namespace, seriesID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Get returns a defensive copy of the cached value if present and not
// expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.storedAt) > c.ttl {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true
}

// Set stores value under key, stamped with the current time.
func (c *Cache) Set(key string, value []byte) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries[key] = cacheEntry{value: stored, storedAt: time.Now()}
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Enabled: c.enabled,
		TTL:     c.ttl,
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
