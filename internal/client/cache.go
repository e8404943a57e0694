package client

import (
	"fmt"
	"sync"
)

// Tags group cached responses so mutations can drop everything they affect.
const (
	TagProduct = "Product"
	TagOrder   = "Order"
	TagUser    = "User"
	TagProfile = "Profile"
)

// Tag names one resource of a kind, e.g. Tag(TagProduct, id) = "Product:<id>".
func Tag(kind string, id any) string {
	return kind + ":" + fmt.Sprint(id)
}

type entry struct {
	body []byte
	tags []string
}

// Cache holds raw response bodies keyed by request path.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.body, ok
}

func (c *Cache) Put(key string, body []byte, tags ...string) {
	if len(tags) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{body: append([]byte(nil), body...), tags: tags}
}

// Invalidate drops every entry carrying at least one of tags and reports how
// many were dropped.
func (c *Cache) Invalidate(tags ...string) int {
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		for _, t := range e.tags {
			if drop[t] {
				delete(c.entries, key)
				n++
				break
			}
		}
	}
	return n
}

func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
