package cache

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey is returned when adding an item whose key is already present.
var ErrDuplicateKey = errors.New("duplicate key")

// Key identifies a cached item by frequency partition and coherent index.
type Key struct {
	Partition uint32
	Index     uint64
}

// Table is a hash table which owns cached items.
// It is not safe for concurrent use.
type Table[V any] struct {
	items map[Key]V

	hits   int64
	misses int64
}

// NewTable creates an empty table with room for capacity items.
func NewTable[V any](capacity int) *Table[V] {
	return &Table[V]{
		items: make(map[Key]V, capacity),
	}
}

// Find returns the item stored under key, leaving it in place.
func (t *Table[V]) Find(key Key) (V, bool) {
	v, ok := t.items[key]
	return v, ok
}

// Extract removes and returns the item stored under key.
// Extract is the lookup used on the retrieval path, so it counts hits and misses.
func (t *Table[V]) Extract(key Key) (V, bool) {
	v, ok := t.items[key]
	if !ok {
		t.misses++
		return v, false
	}
	t.hits++
	delete(t.items, key)
	return v, true
}

// Add stores v under key.
func (t *Table[V]) Add(key Key, v V) error {
	if _, ok := t.items[key]; ok {
		return fmt.Errorf("%w: partition %d index %d", ErrDuplicateKey, key.Partition, key.Index)
	}
	t.items[key] = v
	return nil
}

// Remove deletes and returns the item stored under key.
func (t *Table[V]) Remove(key Key) (V, bool) {
	v, ok := t.items[key]
	if ok {
		delete(t.items, key)
	}
	return v, ok
}

// Len returns the number of stored items.
func (t *Table[V]) Len() int { return len(t.items) }

// Range calls fn for every item until fn returns false.
func (t *Table[V]) Range(fn func(key Key, v V) bool) {
	for k, v := range t.items {
		if !fn(k, v) {
			return
		}
	}
}

// Clear removes all items.
func (t *Table[V]) Clear() {
	clear(t.items)
}

// Stats returns the number of hits and misses seen by Extract.
func (t *Table[V]) Stats() (hits, misses int64) {
	return t.hits, t.misses
}
