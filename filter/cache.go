package filter

import (
	"container/list"
	"sync"
)

// lruCache keeps the most recently compiled filters, safe for concurrent use
type lruCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recent
	index    map[K]*list.Element
}

type cacheItem[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](capacity int) *lruCache[K, V] {
	return &lruCache[K, V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element, capacity),
	}
}

// Get returns the cached value and marks it as recently used
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem[K, V]).value, true
}

// Put stores value under key and drops the oldest entry past capacity
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*cacheItem[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(&cacheItem[K, V]{key: key, value: value})
	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.index, last.Value.(*cacheItem[K, V]).key)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.index)
	c.order.Init()
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
