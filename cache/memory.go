package cache

import (
	"sync"
	"time"
)

// DefaultMemoryCapacity is the entry limit used when none is configured.
const DefaultMemoryCapacity = 500

type memoryEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time // zero means permanent
	prev      *memoryEntry[V]
	next      *memoryEntry[V]
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a bounded, access-ordered cache with per-entry expiry.
//
// Entries live in a doubly linked list between two sentinels:
// head.next is the least recently used entry, tail.prev the most recently
// used. Expiry is checked lazily on access; there is no background sweep.
type MemoryCache[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*memoryEntry[V]
	head     *memoryEntry[V]
	tail     *memoryEntry[V]
	now      func() time.Time
}

// NewMemoryCache creates a cache holding at most capacity entries.
// A capacity <= 0 uses DefaultMemoryCapacity.
func NewMemoryCache[V any](capacity int) *MemoryCache[V] {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	c := &MemoryCache[V]{
		capacity: capacity,
		items:    make(map[string]*memoryEntry[V], capacity),
		head:     &memoryEntry[V]{},
		tail:     &memoryEntry[V]{},
		now:      time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the value for key and marks it most recently used.
// An expired entry is removed and reported as a miss.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		c.remove(e)
		return zero, false
	}
	c.unlink(e)
	c.pushBack(e)
	return e.value, true
}

// Set stores value under key. A ttl > 0 expires the entry after ttl;
// otherwise the entry is permanent. When the cache is full the least
// recently used entry is evicted.
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items[key]; ok {
		c.remove(old)
	}
	if len(c.items) >= c.capacity {
		c.remove(c.head.next)
	}

	e := &memoryEntry[V]{key: key, value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.pushBack(e)
	c.items[key] = e
}

// Has reports whether key holds an unexpired entry without changing its
// recency. An expired entry is removed.
func (c *MemoryCache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	if e.expired(c.now()) {
		c.remove(e)
		return false
	}
	return true
}

// Delete removes key. Idempotent - reports whether an entry was removed.
func (c *MemoryCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// Clear removes every entry.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*memoryEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len returns the number of stored entries, including expired ones not yet
// observed.
func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured entry limit.
func (c *MemoryCache[V]) Capacity() int {
	return c.capacity
}

// Keys returns keys from least to most recently used.
func (c *MemoryCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for e := c.head.next; e != c.tail; e = e.next {
		keys = append(keys, e.key)
	}
	return keys
}

// pushBack links e as the most recently used entry. Caller holds mu.
func (c *MemoryCache[V]) pushBack(e *memoryEntry[V]) {
	e.prev = c.tail.prev
	e.next = c.tail
	c.tail.prev.next = e
	c.tail.prev = e
}

// unlink detaches e from the list. Caller holds mu.
func (c *MemoryCache[V]) unlink(e *memoryEntry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

// remove drops e from both the list and the map. Caller holds mu.
func (c *MemoryCache[V]) remove(e *memoryEntry[V]) {
	c.unlink(e)
	delete(c.items, e.key)
}

// Ensure MemoryCache[any] implements MemoryTier
var _ MemoryTier = (*MemoryCache[any])(nil)
