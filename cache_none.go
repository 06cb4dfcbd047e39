// cache_none.go: the no-eviction policy
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"sync"
	"sync/atomic"
	"time"
)

// NoneCache is a bounded map with no eviction policy: insertion past
// MaxSize fails with Overflow. It does not implement Evictable.
type NoneCache[K comparable, V any] struct {
	mu      sync.RWMutex
	tbl     *Table[K, V, struct{}]
	maxSize int
	gen     uint64
	cfg     Config
	hits    uint64
	misses  uint64
	sets    uint64
	deletes uint64
}

// NewNone constructs a Cache with "Cache" policy: a simple
// bounded map that rejects insertion past capacity.
func NewNone[K comparable, V any](cfg Config) *NoneCache[K, V] {
	cfg.Validate()
	c := &NoneCache[K, V]{
		tbl:     newTable[K, V, struct{}](16),
		maxSize: effectiveMaxSize(cfg.MaxSize),
		cfg:     cfg,
	}
	return c
}

func (c *NoneCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *NoneCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }

func (c *NoneCache[K, V]) Len() int        { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Len() }
func (c *NoneCache[K, V]) Capacity() int    { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *NoneCache[K, V]) MaxSize() int     { return c.cfg.MaxSize }
func (c *NoneCache[K, V]) Policy() Policy   { return PolicyNone }
func (c *NoneCache[K, V]) IsEmpty() bool    { return c.Len() == 0 }
func (c *NoneCache[K, V]) IsFull() bool     { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Len() >= c.maxSize }

func (c *NoneCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tbl.Find(key)
	return ok
}

func (c *NoneCache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	c.mu.RLock()
	idx, ok := c.tbl.Find(key)
	var v V
	if ok {
		v = c.tbl.Value(idx)
	}
	c.mu.RUnlock()
	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	c.cfg.MetricsCollector.RecordGet(time.Since(start).Nanoseconds(), ok)
	return v, ok
}

// Insert upserts key. It fails with Overflow if key is absent and the
// cache is already at MaxSize .
func (c *NoneCache[K, V]) Insert(key K, value V) (V, bool, error) {
	start := time.Now()
	c.mu.Lock()
	if _, exists := c.tbl.Find(key); !exists && c.tbl.Len() >= c.maxSize {
		c.mu.Unlock()
		var zero V
		return zero, false, NewErrOverflow(PolicyNone, c.maxSize, c.tbl.Len())
	}
	_, old, had := c.tbl.InsertOrUpdate(key, value, func() struct{} { return struct{}{} })
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	return old, had, nil
}

func (c *NoneCache[K, V]) SetDefault(key K, def V) (V, error) {
	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		v := c.tbl.Value(idx)
		c.mu.Unlock()
		return v, nil
	}
	if c.tbl.Len() >= c.maxSize {
		c.mu.Unlock()
		var zero V
		return zero, NewErrOverflow(PolicyNone, c.maxSize, c.tbl.Len())
	}
	c.tbl.InsertOrUpdate(key, def, func() struct{} { return struct{}{} })
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *NoneCache[K, V]) Delete(key K) error {
	start := time.Now()
	c.mu.Lock()
	_, ok := c.tbl.EraseKey(key)
	if ok {
		c.bump()
	}
	c.mu.Unlock()
	if !ok {
		return NewErrKeyNotFound(key)
	}
	atomic.AddUint64(&c.deletes, 1)
	c.cfg.MetricsCollector.RecordDelete(time.Since(start).Nanoseconds())
	return nil
}

func (c *NoneCache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	_, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return v, true
}

func (c *NoneCache[K, V]) Update(items map[K]V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range items {
		if _, exists := c.tbl.Find(k); !exists && c.tbl.Len() >= c.maxSize {
			c.bump()
			return NewErrOverflow(PolicyNone, c.maxSize, c.tbl.Len())
		}
		c.tbl.InsertOrUpdate(k, v, func() struct{} { return struct{}{} })
	}
	c.bump()
	return nil
}

func (c *NoneCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.bump()
}

func (c *NoneCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *NoneCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	return out
}

func (c *NoneCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	return out
}

func (c *NoneCache[K, V]) Items() []Pair[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	return out
}

func (c *NoneCache[K, V]) Iterate() *Iterator[K, V] {
	return newIterator[K, V](c, c.Items())
}

func (c *NoneCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits: atomic.LoadUint64(&c.hits), Misses: atomic.LoadUint64(&c.misses),
		Sets: atomic.LoadUint64(&c.sets), Deletes: atomic.LoadUint64(&c.deletes),
		Size: c.tbl.Len(), Capacity: c.tbl.Capacity(),
	}
}

var _ Cache[string, int] = (*NoneCache[string, int])(nil)
