package server

import (
	"container/list"
	"sync"
)

// memoCache is a bounded LRU of encoded simulate responses keyed by circuit
// fingerprint. Entries are full response bodies; the cache never stores
// circuits.
type memoCache struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	items map[string]*list.Element
}

type memoEntry struct {
	key  string
	body []byte
}

func newMemoCache(capacity int) *memoCache {
	return &memoCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (c *memoCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*memoEntry).body, true
}

func (c *memoCache) put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*memoEntry).body = body
		return
	}
	c.items[key] = c.order.PushFront(&memoEntry{key: key, body: body})
	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoEntry).key)
	}
}

func (c *memoCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
