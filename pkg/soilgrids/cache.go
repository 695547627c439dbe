package soilgrids

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/terra/internal/soil"
)

// keyPlaces is the coordinate precision of cache keys (about 11 m), well
// inside one 250 m SoilGrids cell.
const keyPlaces = 4

// Cache is a concurrency-safe LRU of soil samples with TTL expiration.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	order      []string // front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64

	now func() time.Time
}

type cacheEntry struct {
	sample    soil.Sample
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache creates a Cache holding up to maxEntries samples for ttl. A
// non-positive ttl never expires entries.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		maxEntries: max(maxEntries, 1),
		ttl:        ttl,
		now:        time.Now,
	}
}

// cacheKey rounds to keyPlaces before formatting so that -0.00001 and
// 0.00001 share the key "0.0000".
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.*f,%.*f", keyPlaces, roundKey(lat), keyPlaces, roundKey(lng))
}

func roundKey(v float64) float64 {
	scale := math.Pow(10, keyPlaces)
	// + 0 folds negative zero.
	return math.Round(v*scale)/scale + 0
}

// Get returns the cached sample near (lat, lng).
func (c *Cache) Get(lat, lng float64) (soil.Sample, bool) {
	key := cacheKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return soil.Sample{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return soil.Sample{}, false
	}

	c.touch(key)
	c.hits.Add(1)
	return entry.sample, true
}

// Put stores a sample, evicting the least recently used entry when full.
func (c *Cache) Put(lat, lng float64, s soil.Sample) {
	key := cacheKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = cacheEntry{sample: s, createdAt: c.now()}
		c.touch(key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = cacheEntry{sample: s, createdAt: c.now()}
	c.order = append(c.order, key)
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *Cache) touch(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
