// memory.go: in-memory decoded-image cache with a byte budget
package imagecache

import (
	"image"
	"sync"
	"time"
)

type memoryEntry struct {
	img        image.Image
	cost       int64
	lastAccess time.Time
}

// MemoryCache holds decoded images under a cumulative byte budget. Cost is
// approximated as width*height*4. Every hit refreshes the entry's last
// access time; when an insertion pushes the cache over budget, the least
// recently accessed entries are evicted until it fits again.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	size    int64
	limit   int64

	// now is swappable so eviction order is controllable in tests.
	now func() time.Time
}

// NewMemoryCache returns a cache with the given byte budget. A limit below
// one disables residency entirely: every insertion is evicted immediately.
func NewMemoryCache(limit int64) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		limit:   limit,
		now:     time.Now,
	}
}

// imageCost approximates the resident size of a decoded image.
func imageCost(img image.Image) int64 {
	bounds := img.Bounds()
	return int64(bounds.Dx()) * int64(bounds.Dy()) * 4
}

// Get returns the cached image for key and refreshes its last access time.
func (c *MemoryCache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry.lastAccess = c.now()
	return entry.img, true
}

// Set stores img under key and evicts least-recently-accessed entries until
// the cache is back under budget.
func (c *MemoryCache) Set(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.size -= old.cost
	}
	entry := &memoryEntry{
		img:        img,
		cost:       imageCost(img),
		lastAccess: c.now(),
	}
	c.entries[key] = entry
	c.size += entry.cost

	for c.size > c.limit && len(c.entries) > 0 {
		c.evictOldest()
	}
}

// evictOldest removes the least-recently-accessed entry. Ties break on key
// order so eviction is deterministic. Caller holds the lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest *memoryEntry
	for key, entry := range c.entries {
		if oldest == nil ||
			entry.lastAccess.Before(oldest.lastAccess) ||
			(entry.lastAccess.Equal(oldest.lastAccess) && key < oldestKey) {
			oldestKey, oldest = key, entry
		}
	}
	delete(c.entries, oldestKey)
	c.size -= oldest.cost
}

// Remove drops a single entry if present.
func (c *MemoryCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.size -= entry.cost
	}
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
	c.size = 0
}

// Size returns the current resident byte cost.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of resident entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
