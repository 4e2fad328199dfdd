package assets

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/colonyops/reviews/internal/observability"
)

// DefaultCapacity is the number of decoded images kept in memory.
const DefaultCapacity = 100

// Cache is a bounded, URL-keyed image cache. It is safe for concurrent use
// by any number of loaders; the least recently used entry is evicted once
// the capacity is exceeded.
type Cache struct {
	name     string
	capacity int
	entries  *lru.Cache[string, Image]
}

// NewCache creates a cache holding at most capacity images.
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}

	c := &Cache{name: "assets", capacity: capacity}
	entries, err := lru.NewWithEvict(capacity, func(string, Image) {
		observability.ObserveCache(c.name, "evict")
	})
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Get returns the cached image for key without blocking on fetches.
func (c *Cache) Get(key string) (Image, bool) {
	img, ok := c.entries.Get(key)
	if ok {
		observability.ObserveCache(c.name, "hit")
	} else {
		observability.ObserveCache(c.name, "miss")
	}
	return img, ok
}

// Put inserts or replaces the image stored under key.
func (c *Cache) Put(key string, img Image) {
	c.entries.Add(key, img)
	observability.ObserveCache(c.name, "set")
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Cap returns the configured capacity.
func (c *Cache) Cap() int {
	return c.capacity
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}
