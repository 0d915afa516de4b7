package codec

import (
	"sync"
	"sync/atomic"
)

// Cache memoizes compiled methods by key. Lookups are lock-free; concurrent
// producers of the same key converge on the first stored method.
type Cache struct {
	entries sync.Map // string -> Method
	size    atomic.Int64
}

// Load returns the method stored for key.
func (c *Cache) Load(key string) (Method, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(Method), true
}

// Store publishes m under key unless a method is already stored, and
// returns the method that won.
func (c *Cache) Store(key string, m Method) Method {
	actual, loaded := c.entries.LoadOrStore(key, m)
	if !loaded {
		c.size.Add(1)
	}
	return actual.(Method)
}

// GetOrCompile returns the method for key, calling factory on a miss.
func (c *Cache) GetOrCompile(key string, factory func() (Method, error)) (Method, error) {
	if m, ok := c.Load(key); ok {
		return m, nil
	}
	m, err := factory()
	if err != nil {
		return nil, err
	}
	return c.Store(key, m), nil
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
	c.size.Store(0)
}

// Len returns the number of cached methods.
func (c *Cache) Len() int {
	return int(c.size.Load())
}
