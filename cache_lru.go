// cache_lru.go: the least-recently-used eviction policy
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

type lruMeta struct {
	prev, next int32
}

// LRUCache evicts the least-recently-used entry once MaxSize is reached.
// Get and Insert both move the touched entry to the most-recently-used
// end of the ring; Peek does not .
type LRUCache[K comparable, V any] struct {
	mu         sync.RWMutex
	tbl        *Table[K, V, lruMeta]
	head, tail int32 // head = least recent, tail = most recent
	maxSize    int
	gen        uint64
	cfg        Config

	hits, misses, sets, deletes, evictions uint64
}

// NewLRU constructs a least-recently-used bounded cache.
func NewLRU[K comparable, V any](cfg Config) *LRUCache[K, V] {
	cfg.Validate()
	return &LRUCache[K, V]{
		tbl: newTable[K, V, lruMeta](16), head: -1, tail: -1,
		maxSize: effectiveMaxSize(cfg.MaxSize), cfg: cfg,
	}
}

func (c *LRUCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *LRUCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }

func (c *LRUCache[K, V]) pushBack(idx int32) {
	m := c.tbl.Meta(idx)
	m.prev, m.next = c.tail, -1
	if c.tail != -1 {
		c.tbl.Meta(c.tail).next = idx
	} else {
		c.head = idx
	}
	c.tail = idx
}

func (c *LRUCache[K, V]) unlink(idx int32) {
	m := c.tbl.Meta(idx)
	if m.prev != -1 {
		c.tbl.Meta(m.prev).next = m.next
	} else {
		c.head = m.next
	}
	if m.next != -1 {
		c.tbl.Meta(m.next).prev = m.prev
	} else {
		c.tail = m.prev
	}
}

// touch moves idx to the most-recently-used end.
func (c *LRUCache[K, V]) touch(idx int32) {
	if c.tail == idx {
		return
	}
	c.unlink(idx)
	c.pushBack(idx)
}

func (c *LRUCache[K, V]) evictOldestLocked() (K, V, bool) {
	if c.head == -1 {
		var zk K
		var zv V
		return zk, zv, false
	}
	idx := c.head
	c.unlink(idx)
	k, v := c.tbl.Erase(idx)
	atomic.AddUint64(&c.evictions, 1)
	c.cfg.MetricsCollector.RecordEviction()
	return k, v, true
}

func (c *LRUCache[K, V]) Len() int       { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Len() }
func (c *LRUCache[K, V]) Capacity() int  { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *LRUCache[K, V]) MaxSize() int   { return c.cfg.MaxSize }
func (c *LRUCache[K, V]) Policy() Policy { return PolicyLRU }
func (c *LRUCache[K, V]) IsEmpty() bool  { return c.Len() == 0 }
func (c *LRUCache[K, V]) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tbl.Len() >= c.maxSize
}

func (c *LRUCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tbl.Find(key)
	return ok
}

// Peek reads a value without updating recency.
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return c.tbl.Value(idx), true
}

// Get reads a value and moves it to the most-recently-used position.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	var v V
	if ok {
		v = c.tbl.Value(idx)
		c.touch(idx)
		c.bump()
	}
	c.mu.Unlock()
	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	c.cfg.MetricsCollector.RecordGet(time.Since(start).Nanoseconds(), ok)
	return v, ok
}

func (c *LRUCache[K, V]) Insert(key K, value V) (V, bool, error) {
	start := time.Now()
	var evicted []evictionEvent[K, V]

	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		old := c.tbl.Value(idx)
		c.tbl.SetValue(idx, value)
		c.touch(idx)
		c.bump()
		c.mu.Unlock()
		atomic.AddUint64(&c.sets, 1)
		c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
		return old, true, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictOldestLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, value, func() lruMeta { return lruMeta{-1, -1} })
	c.pushBack(idx)
	c.bump()
	c.mu.Unlock()

	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	var zero V
	return zero, false, nil
}

func (c *LRUCache[K, V]) SetDefault(key K, def V) (V, error) {
	var evicted []evictionEvent[K, V]
	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		v := c.tbl.Value(idx)
		c.touch(idx)
		c.bump()
		c.mu.Unlock()
		return v, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictOldestLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, def, func() lruMeta { return lruMeta{-1, -1} })
	c.pushBack(idx)
	c.bump()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *LRUCache[K, V]) Delete(key K) error {
	start := time.Now()
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		c.mu.Unlock()
		return NewErrKeyNotFound(key)
	}
	c.unlink(idx)
	c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	c.cfg.MetricsCollector.RecordDelete(time.Since(start).Nanoseconds())
	return nil
}

func (c *LRUCache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	c.unlink(idx)
	_, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return v, true
}

// PopItem removes and returns the least-recently-used entry.
func (c *LRUCache[K, V]) PopItem() (K, V, error) {
	c.mu.Lock()
	k, v, ok := c.evictOldestLocked()
	if !ok {
		c.mu.Unlock()
		var zk K
		var zv V
		return zk, zv, NewErrKeyNotFound(nil)
	}
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return k, v, nil
}

// Drain repeats PopItem up to n times, returning the count removed.
func (c *LRUCache[K, V]) Drain(n int) int {
	removed := 0
	for i := 0; i < n; i++ {
		if _, _, err := c.PopItem(); err != nil {
			break
		}
		removed++
	}
	return removed
}

func (c *LRUCache[K, V]) Update(items map[K]V) error {
	for k, v := range items {
		if _, _, err := c.Insert(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *LRUCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.head, c.tail = -1, -1
	c.bump()
}

func (c *LRUCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *LRUCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	return out
}

func (c *LRUCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	return out
}

func (c *LRUCache[K, V]) Items() []Pair[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	return out
}

func (c *LRUCache[K, V]) Iterate() *Iterator[K, V] { return newIterator[K, V](c, c.Items()) }

// LeastRecentlyUsed returns the key at rank n from the head (the
// least-recently-touched live entry), or (zero, false) if out of range.
func (c *LRUCache[K, V]) LeastRecentlyUsed(n int) (K, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.head
	for i := 0; idx != -1 && i < n; i++ {
		idx = c.tbl.Meta(idx).next
	}
	if idx == -1 {
		var zero K
		return zero, false
	}
	return c.tbl.Key(idx), true
}

// MostRecentlyUsed returns the most-recently-touched key.
func (c *LRUCache[K, V]) MostRecentlyUsed() (K, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tail == -1 {
		var zero K
		return zero, false
	}
	return c.tbl.Key(c.tail), true
}

func (c *LRUCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits: atomic.LoadUint64(&c.hits), Misses: atomic.LoadUint64(&c.misses),
		Sets: atomic.LoadUint64(&c.sets), Deletes: atomic.LoadUint64(&c.deletes),
		Evictions: atomic.LoadUint64(&c.evictions),
		Size:      c.tbl.Len(), Capacity: c.tbl.Capacity(),
	}
}

var (
	_ Cache[string, int]     = (*LRUCache[string, int])(nil)
	_ Evictable[string, int] = (*LRUCache[string, int])(nil)
)
