// Package providers – response cache
//
// This file implements the process-wide provider response cache. Identical
// (engine, host, limit, query) requests within a short TTL window are served
// from memory to absorb duplicate calls in a burst. The cache carries no
// correctness obligation: it is purely a latency/cost optimization, bounded
// in size with oldest-first eviction past a fixed capacity.
package providers

import (
	"container/list"
	"sync"
	"time"
)

// CacheKey identifies one provider request shape.
type CacheKey struct {
	Engine string
	Host   string
	Limit  int
	Query  string
}

type cacheEntry struct {
	key      CacheKey
	body     []byte
	storedAt time.Time
}

// Cache is a TTL-bounded, capacity-bounded response cache safe for
// concurrent use. Entries are evicted oldest-first once the capacity is
// exceeded; stale entries are dropped lazily on lookup.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	cap     int
	order   *list.List // insertion order, front = oldest
	entries map[CacheKey]*list.Element

	// now is a clock seam for tests.
	now func() time.Time
}

// NewCache constructs a Cache with the given TTL and capacity.
// A capacity below 1 is coerced to 1.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		ttl:     ttl,
		cap:     capacity,
		order:   list.New(),
		entries: make(map[CacheKey]*list.Element, capacity),
		now:     time.Now,
	}
}

// Get returns the cached body for key when present and fresh.
func (c *Cache) Get(key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*cacheEntry)
	if c.now().Sub(ent.storedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return ent.body, true
}

// Put stores (or refreshes) the body for key, evicting the oldest entries
// once the capacity is exceeded. A refresh restarts the entry's age.
func (c *Cache) Put(key CacheKey, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	el := c.order.PushBack(&cacheEntry{key: key, body: body, storedAt: c.now()})
	c.entries[key] = el

	for len(c.entries) > c.cap {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		ent := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, ent.key)
	}
}

// Len reports the number of live entries (including not-yet-expired ones).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
