package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

// MemoryCache is an in-process LRU cache with a TTL per entry.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
	capacity int
	ttl      time.Duration
	now      Clock
}

type memoryEntry struct {
	key   string
	entry domain.CacheEntry
}

// NewMemoryCache creates a cache. Non-positive arguments fall back to
// DefaultCapacity and DefaultTTL.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the cache's time source.
func (c *MemoryCache) WithClock(now Clock) *MemoryCache {
	c.now = now
	return c
}

// Get implements Cache. Expired entries are reported absent and left for the
// next Put or Sweep to replace.
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (*domain.SuggestionResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	me := el.Value.(*memoryEntry)
	if !me.entry.Fresh(c.now(), c.ttl) {
		return nil, false, nil
	}

	c.order.MoveToFront(el)
	result := me.entry.Result.Clone()
	return &result, true, nil
}

// Put implements Cache.
func (c *MemoryCache) Put(_ context.Context, fingerprint string, result domain.SuggestionResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := domain.CacheEntry{Result: result.Clone(), CreatedAt: c.now()}

	if el, ok := c.entries[fingerprint]; ok {
		el.Value.(*memoryEntry).entry = entry
		c.order.MoveToFront(el)
		return nil
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.entries[fingerprint] = c.order.PushFront(&memoryEntry{key: fingerprint, entry: entry})
	return nil
}

// Len implements Cache.
func (c *MemoryCache) Len(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), nil
}

// Sweep implements Cache.
func (c *MemoryCache) Sweep(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if me := el.Value.(*memoryEntry); !me.entry.Fresh(now, c.ttl) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed, nil
}

// Backend implements Cache.
func (c *MemoryCache) Backend() string { return BackendMemory }

// evictOldest removes the least recently used entry. Must be called with lock held.
func (c *MemoryCache) evictOldest() {
	if el := c.order.Back(); el != nil {
		c.removeElement(el)
	}
}

// removeElement must be called with lock held.
func (c *MemoryCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*memoryEntry).key)
}
