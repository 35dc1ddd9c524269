package geometry

import (
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// PlacementCache memoizes Placements by normalized shape and cube size.
// It is safe for concurrent use; each key is computed at most once and
// concurrent callers for a key in flight wait for the same result.
//
// Returned slices are shared between callers and must not be modified.
type PlacementCache struct {
	mu      sync.RWMutex
	entries map[string][]Shape
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewPlacementCache returns an empty cache.
func NewPlacementCache() *PlacementCache {
	return &PlacementCache{entries: make(map[string][]Shape)}
}

// Placements returns Placements(s, cubeSize), computing it on first use.
// Translated copies of the same shape share an entry.
func (c *PlacementCache) Placements(s Shape, cubeSize int) ([]Shape, error) {
	if cubeSize <= 0 {
		return Placements(s, cubeSize)
	}
	norm, err := Normalize(s)
	if err != nil {
		return nil, err
	}
	key := strconv.Itoa(cubeSize) + "|" + norm.Key()

	c.mu.RLock()
	ps, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return ps, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A caller that finished between our read and Do has already stored it.
		c.mu.RLock()
		ps, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return ps, nil
		}
		ps, err := Placements(norm, cubeSize)
		if err != nil {
			return nil, err
		}
		c.misses.Add(1)
		c.mu.Lock()
		c.entries[key] = ps
		c.mu.Unlock()
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Shape), nil
}

// Len returns the number of cached entries.
func (c *PlacementCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the current counters. Misses counts computations.
func (c *PlacementCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
