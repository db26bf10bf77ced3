// Package cache provides a size-bounded LRU cache with per-entry expiry.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts the least recently used entry once full. Entries older than
// the TTL are treated as missing.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	order   *list.List

	hits, misses int64
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return NewLRUWithClock[T](maxSize, ttl, time.Now)
}

func NewLRUWithClock[T any](maxSize int, ttl time.Duration, now func() time.Time) *LRU[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     now,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if !c.now().Before(e.expiresAt) {
		c.remove(elem)
		c.misses++
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Purge drops every entry.
func (c *LRU[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// CleanExpired removes expired entries and returns how many went.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*entry[T]).expiresAt) {
			c.remove(elem)
			n++
		}
		elem = prev
	}
	return n
}

func (c *LRU[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), Hits: c.hits, Misses: c.misses}
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
