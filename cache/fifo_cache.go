// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc computes the value for a key on a cache miss
type FetchFunc[K comparable, V any] func(key K) (V, error)

// FIFOCache is a bounded, thread-safe cache that evicts the oldest entry
// first. Concurrent misses for the same key share a single fetch. Failed
// fetches are never cached.
type FIFOCache[K comparable, V any] struct {
	lock     sync.RWMutex
	entries  map[K]V
	order    []K
	capacity int

	group singleflight.Group
}

// NewFIFOCache returns a cache holding at most capacity entries.
// A non-positive capacity disables caching; every Get fetches.
func NewFIFOCache[K comparable, V any](capacity int) *FIFOCache[K, V] {
	return &FIFOCache[K, V]{
		entries:  make(map[K]V),
		order:    make([]K, 0, max(capacity, 0)),
		capacity: capacity,
	}
}

// Get returns the cached value for key or fetches it
func (c *FIFOCache[K, V]) Get(key K, fetch FetchFunc[K, V]) (V, error) {
	c.lock.RLock()
	val, ok := c.entries[key]
	c.lock.RUnlock()
	if ok {
		return val, nil
	}

	v, err, _ := c.group.Do(flightKey(key), func() (interface{}, error) {
		fetched, err := fetch(key)
		if err != nil {
			return fetched, err
		}
		c.lock.Lock()
		c.put(key, fetched)
		c.lock.Unlock()
		return fetched, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// put stores a value. Caller must hold the write lock.
func (c *FIFOCache[K, V]) put(key K, val V) {
	if c.capacity <= 0 {
		return
	}
	if _, exists := c.entries[key]; exists {
		c.entries[key] = val
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = val
	c.order = append(c.order, key)
}

// Len returns the number of cached entries
func (c *FIFOCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.entries)
}

func flightKey[K comparable](key K) string {
	if s, ok := any(key).(string); ok {
		return s
	}
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
