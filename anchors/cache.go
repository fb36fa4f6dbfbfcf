package anchors

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes anchor sets per image size.
//
// Anchors depend only on the image size and the generator configuration, so a set is
// built once and then shared read-only by every example of that size. Concurrent
// misses for the same size wait on a single Generate call.
type Cache struct {
	gen   *Generator
	group singleflight.Group

	mu   sync.RWMutex
	sets map[[2]int]*Set
}

// NewCache wraps a generator with a per-size cache.
func NewCache(gen *Generator) *Cache {
	return &Cache{
		gen:  gen,
		sets: make(map[[2]int]*Set),
	}
}

// Generator returns the underlying generator.
func (c *Cache) Generator() *Generator {
	return c.gen
}

// Get returns the anchor set for an image size, generating it on first use.
func (c *Cache) Get(height, width int) (*Set, error) {
	key := [2]int{height, width}

	c.mu.RLock()
	set, ok := c.sets[key]
	c.mu.RUnlock()
	if ok {
		return set, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%dx%d", height, width), func() (interface{}, error) {
		set, err := c.gen.Generate(height, width)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.sets[key] = set
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Set), nil
}

// Len is the number of cached sizes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}
