package store

import "sort"

// KeyedCache is an unbounded last-write-wins map. A miss is reported by the
// boolean from Get, never as an error. Like the other stores it does no
// locking of its own.
type KeyedCache[T any] struct {
	items map[string]T
	clone func(T) T
}

// NewKeyedCache returns an empty cache. clone, if non-nil, copies values on
// Put and Get so the cache never shares memory with callers.
func NewKeyedCache[T any](clone func(T) T) *KeyedCache[T] {
	return &KeyedCache[T]{items: make(map[string]T), clone: clone}
}

// Put stores value under key, replacing any earlier value.
func (c *KeyedCache[T]) Put(key string, value T) {
	if c.clone != nil {
		value = c.clone(value)
	}
	c.items[key] = value
}

// Get returns the value for key and whether it was present.
func (c *KeyedCache[T]) Get(key string) (T, bool) {
	v, ok := c.items[key]
	if ok && c.clone != nil {
		v = c.clone(v)
	}
	return v, ok
}

// Keys returns all keys in sorted order.
func (c *KeyedCache[T]) Keys() []string {
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *KeyedCache[T]) Len() int {
	return len(c.items)
}

func (c *KeyedCache[T]) Clear() {
	c.items = make(map[string]T)
}
