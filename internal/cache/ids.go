package cache

import (
	"strings"
	"sync"
)

// IDIndex maps hotspot ids to registry indices. Lookups ignore case.
type IDIndex struct {
	mu  sync.RWMutex
	ids map[string]int
}

// NewIDIndex creates an empty index.
func NewIDIndex() *IDIndex {
	return &IDIndex{ids: make(map[string]int)}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Get resolves an id.
func (c *IDIndex) Get(id string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.ids[normalize(id)]
	return i, ok
}

// Set stores an id. The first index stored for an id is kept.
func (c *IDIndex) Set(id string, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := normalize(id)
	if _, ok := c.ids[key]; ok {
		return false
	}
	c.ids[key] = index
	return true
}

// Len returns the number of ids.
func (c *IDIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Reset clears the index.
func (c *IDIndex) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make(map[string]int)
}
