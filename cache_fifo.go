// cache_fifo.go: the FIFO eviction policy
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

type fifoMeta struct {
	prev, next int32
}

// FIFOCache evicts the oldest inserted entry once MaxSize is reached.
// Updating a present key leaves its position unchanged .
type FIFOCache[K comparable, V any] struct {
	mu              sync.RWMutex
	tbl             *Table[K, V, fifoMeta]
	head, tail      int32
	maxSize         int
	gen             uint64
	cfg             Config
	hits, misses    uint64
	sets, deletes   uint64
	evictions       uint64
}

// NewFIFO constructs a first-in-first-out bounded cache.
func NewFIFO[K comparable, V any](cfg Config) *FIFOCache[K, V] {
	cfg.Validate()
	return &FIFOCache[K, V]{
		tbl: newTable[K, V, fifoMeta](16), head: -1, tail: -1,
		maxSize: effectiveMaxSize(cfg.MaxSize), cfg: cfg,
	}
}

func (c *FIFOCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *FIFOCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }

func (c *FIFOCache[K, V]) pushBack(idx int32) {
	m := c.tbl.Meta(idx)
	m.prev, m.next = c.tail, -1
	if c.tail != -1 {
		c.tbl.Meta(c.tail).next = idx
	} else {
		c.head = idx
	}
	c.tail = idx
}

func (c *FIFOCache[K, V]) unlink(idx int32) {
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

// evictOldestLocked removes the head entry, returning it for the caller
// to dispatch as an eviction event after unlocking.
func (c *FIFOCache[K, V]) evictOldestLocked() (K, V, bool) {
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

func (c *FIFOCache[K, V]) Len() int      { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Len() }
func (c *FIFOCache[K, V]) Capacity() int { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *FIFOCache[K, V]) MaxSize() int  { return c.cfg.MaxSize }
func (c *FIFOCache[K, V]) Policy() Policy { return PolicyFIFO }
func (c *FIFOCache[K, V]) IsEmpty() bool { return c.Len() == 0 }
func (c *FIFOCache[K, V]) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tbl.Len() >= c.maxSize
}

func (c *FIFOCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tbl.Find(key)
	return ok
}

func (c *FIFOCache[K, V]) Get(key K) (V, bool) {
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

func (c *FIFOCache[K, V]) Insert(key K, value V) (V, bool, error) {
	start := time.Now()
	var evicted []evictionEvent[K, V]

	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		old := c.tbl.Value(idx)
		c.tbl.SetValue(idx, value)
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
	idx, _, _ := c.tbl.InsertOrUpdate(key, value, func() fifoMeta { return fifoMeta{-1, -1} })
	c.pushBack(idx)
	c.bump()
	c.mu.Unlock()

	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	var zero V
	return zero, false, nil
}

func (c *FIFOCache[K, V]) SetDefault(key K, def V) (V, error) {
	var evicted []evictionEvent[K, V]
	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		v := c.tbl.Value(idx)
		c.mu.Unlock()
		return v, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictOldestLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, def, func() fifoMeta { return fifoMeta{-1, -1} })
	c.pushBack(idx)
	c.bump()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *FIFOCache[K, V]) Delete(key K) error {
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

func (c *FIFOCache[K, V]) Pop(key K) (V, bool) {
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

// PopItem removes and returns the oldest entry .
func (c *FIFOCache[K, V]) PopItem() (K, V, error) {
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
func (c *FIFOCache[K, V]) Drain(n int) int {
	removed := 0
	for i := 0; i < n; i++ {
		if _, _, err := c.PopItem(); err != nil {
			break
		}
		removed++
	}
	return removed
}

func (c *FIFOCache[K, V]) Update(items map[K]V) error {
	for k, v := range items {
		if _, _, err := c.Insert(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *FIFOCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.head, c.tail = -1, -1
	c.bump()
}

func (c *FIFOCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *FIFOCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	return out
}

func (c *FIFOCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	return out
}

func (c *FIFOCache[K, V]) Items() []Pair[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	return out
}

func (c *FIFOCache[K, V]) Iterate() *Iterator[K, V] { return newIterator[K, V](c, c.Items()) }

// First returns the key at rank n from the head (oldest), or (zero,
// false) if out of range .
func (c *FIFOCache[K, V]) First(n int) (K, bool) {
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

// Last returns the most-recently-inserted key.
func (c *FIFOCache[K, V]) Last() (K, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tail == -1 {
		var zero K
		return zero, false
	}
	return c.tbl.Key(c.tail), true
}

func (c *FIFOCache[K, V]) Stats() Stats {
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
	_ Cache[string, int]     = (*FIFOCache[string, int])(nil)
	_ Evictable[string, int] = (*FIFOCache[string, int])(nil)
)
