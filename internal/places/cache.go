// Package places finds nearby points of interest through the Overpass API,
// with a short-lived in-memory cache in front of it.
package places

import (
	"math"
	"sync"
	"time"

	"github.com/duotrip/duotrip/internal/metrics"
	"github.com/duotrip/duotrip/internal/models"
)

// DefaultTTL is how long a cached result set stays valid.
const DefaultTTL = 5 * time.Minute

// cacheKey quantizes coordinates to 3 decimal places (~110 m grid cells).
// Nearby repeated queries land in the same cell, which bounds the key space
// and raises the hit rate at the cost of positional precision.
type cacheKey struct {
	latE3    int
	lngE3    int
	category string
}

func keyFor(lat, lng float64, category string) cacheKey {
	return cacheKey{
		latE3:    int(math.Round(lat * 1000)),
		lngE3:    int(math.Round(lng * 1000)),
		category: category,
	}
}

type cacheEntry struct {
	places    []models.Place
	expiresAt time.Time
	gen       uint64
}

// Cache is a time-bounded memoization of proximity search results.
// Each insert schedules its own expiry timer; Get additionally checks the
// deadline lazily so an injected clock makes expiry deterministic in tests.
// There is no eviction under memory pressure: entries self-expire quickly
// and trip-local query volume is low, so this is acceptable here but would
// not be in a higher-traffic context.
type Cache struct {
	ttl time.Duration

	// now and schedule are swappable for tests. schedule may be nil, in
	// which case expiry is purely lazy.
	now      func() time.Time
	schedule func(d time.Duration, f func())

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	gen     uint64
}

// NewCache creates a cache with per-entry expiry after ttl on the real clock.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:      ttl,
		now:      time.Now,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		entries:  make(map[cacheKey]cacheEntry),
	}
}

// newCacheWithClock creates a cache on an injected clock with no timers;
// expiry happens lazily on Get. Test constructor.
func newCacheWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Get returns the cached result set for the grid cell containing (lat, lng)
// and the category, or a miss if absent or expired.
func (c *Cache) Get(lat, lng float64, category string) ([]models.Place, bool) {
	key := keyFor(lat, lng, category)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.GeoCacheMisses.Inc()
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		metrics.GeoCacheMisses.Inc()
		return nil, false
	}

	metrics.GeoCacheHits.Inc()
	return entry.places, true
}

// Put stores the result set and schedules its expiry. A put to an occupied
// key overwrites the entry and invalidates the previous timer.
func (c *Cache) Put(lat, lng float64, category string, places []models.Place) {
	key := keyFor(lat, lng, category)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.entries[key] = cacheEntry{
		places:    places,
		expiresAt: c.now().Add(c.ttl),
		gen:       gen,
	}
	c.mu.Unlock()

	if c.schedule != nil {
		c.schedule(c.ttl, func() { c.expire(key, gen) })
	}
}

// expire removes the entry unless a newer Put replaced it in the meantime.
func (c *Cache) expire(key cacheKey, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok && entry.gen == gen {
		delete(c.entries, key)
	}
}

// Len reports the number of live entries (expired-but-unswept included).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
