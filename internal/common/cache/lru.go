package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type lruEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// LRUCache is an in-process Cache bounded by entry count.
type LRUCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
}

// NewLRUCache creates a cache holding at most maxSize entries. ttl applies to
// entries set without one.
func NewLRUCache(maxSize int, ttl time.Duration) *LRUCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &LRUCache{
		items:   make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *LRUCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return "", nil
	}
	entry := elem.Value.(*lruEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		return "", nil
	}
	c.order.MoveToFront(elem)
	return entry.value, nil
}

// Set stores value; ttl 0 uses the cache default, a negative ttl never expires.
func (c *LRUCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.ttl
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry)
		entry.value = value
		entry.expiresAt = exp
		c.order.MoveToFront(elem)
		return nil
	}

	elem := c.order.PushFront(&lruEntry{key: key, value: value, expiresAt: exp})
	c.items[key] = elem
	if len(c.items) > c.maxSize {
		c.evictOldest()
	}
	return nil
}

func (c *LRUCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if elem, ok := c.items[key]; ok {
			c.removeElement(elem)
		}
	}
	return nil
}

func (c *LRUCache) Ping(context.Context) error { return nil }

func (c *LRUCache) Close() error { return nil }

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *LRUCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*lruEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}
