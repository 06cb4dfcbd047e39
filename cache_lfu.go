// cache_lfu.go: the least-frequently-used eviction policy
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

// lfuMeta tracks a use counter plus a monotonic insertion sequence used
// to break ties in favor of the entry inserted first .
type lfuMeta struct {
	freq uint64
	seq  uint64
}

// LFUCache evicts the entry with the smallest use count once MaxSize is
// reached, breaking ties by earliest insertion. Get and Insert-on-update
// both increment the touched entry's frequency; Peek does not.
type LFUCache[K comparable, V any] struct {
	mu      sync.RWMutex
	tbl     *Table[K, V, lfuMeta]
	nextSeq uint64
	maxSize int
	gen     uint64
	cfg     Config

	hits, misses, sets, deletes, evictions uint64
}

// NewLFU constructs a least-frequently-used bounded cache.
func NewLFU[K comparable, V any](cfg Config) *LFUCache[K, V] {
	cfg.Validate()
	return &LFUCache[K, V]{
		tbl:     newTable[K, V, lfuMeta](16),
		maxSize: effectiveMaxSize(cfg.MaxSize),
		cfg:     cfg,
	}
}

func (c *LFUCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *LFUCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }

func (c *LFUCache[K, V]) touch(idx int32) {
	c.tbl.Meta(idx).freq++
}

// victimLocked scans for the minimum (freq, seq) pair. O(n); cachebox
// §9 accepts linear eviction scan cost for LFU in exchange for O(1) Get.
func (c *LFUCache[K, V]) victimLocked() (int32, bool) {
	var best int32 = -1
	var bestFreq, bestSeq uint64
	c.tbl.ForEach(func(idx int32) {
		m := c.tbl.Meta(idx)
		if best == -1 || m.freq < bestFreq || (m.freq == bestFreq && m.seq < bestSeq) {
			best, bestFreq, bestSeq = idx, m.freq, m.seq
		}
	})
	return best, best != -1
}

func (c *LFUCache[K, V]) evictVictimLocked() (K, V, bool) {
	idx, ok := c.victimLocked()
	if !ok {
		var zk K
		var zv V
		return zk, zv, false
	}
	k, v := c.tbl.Erase(idx)
	atomic.AddUint64(&c.evictions, 1)
	c.cfg.MetricsCollector.RecordEviction()
	return k, v, true
}

func (c *LFUCache[K, V]) Len() int       { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Len() }
func (c *LFUCache[K, V]) Capacity() int  { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *LFUCache[K, V]) MaxSize() int   { return c.cfg.MaxSize }
func (c *LFUCache[K, V]) Policy() Policy { return PolicyLFU }
func (c *LFUCache[K, V]) IsEmpty() bool  { return c.Len() == 0 }
func (c *LFUCache[K, V]) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tbl.Len() >= c.maxSize
}

func (c *LFUCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tbl.Find(key)
	return ok
}

// Peek reads a value without incrementing its use count.
func (c *LFUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return c.tbl.Value(idx), true
}

func (c *LFUCache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	var v V
	if ok {
		v = c.tbl.Value(idx)
		c.touch(idx)
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

func (c *LFUCache[K, V]) Insert(key K, value V) (V, bool, error) {
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
		if k, v, ok := c.evictVictimLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	seq := c.nextSeq
	c.nextSeq++
	c.tbl.InsertOrUpdate(key, value, func() lfuMeta { return lfuMeta{freq: 0, seq: seq} })
	c.bump()
	c.mu.Unlock()

	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	var zero V
	return zero, false, nil
}

func (c *LFUCache[K, V]) SetDefault(key K, def V) (V, error) {
	var evicted []evictionEvent[K, V]
	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		v := c.tbl.Value(idx)
		c.touch(idx)
		c.mu.Unlock()
		return v, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictVictimLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	seq := c.nextSeq
	c.nextSeq++
	c.tbl.InsertOrUpdate(key, def, func() lfuMeta { return lfuMeta{freq: 0, seq: seq} })
	c.bump()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *LFUCache[K, V]) Delete(key K) error {
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

func (c *LFUCache[K, V]) Pop(key K) (V, bool) {
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

// PopItem removes and returns the least-frequently-used entry.
func (c *LFUCache[K, V]) PopItem() (K, V, error) {
	c.mu.Lock()
	k, v, ok := c.evictVictimLocked()
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
func (c *LFUCache[K, V]) Drain(n int) int {
	removed := 0
	for i := 0; i < n; i++ {
		if _, _, err := c.PopItem(); err != nil {
			break
		}
		removed++
	}
	return removed
}

func (c *LFUCache[K, V]) Update(items map[K]V) error {
	for k, v := range items {
		if _, _, err := c.Insert(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *LFUCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.nextSeq = 0
	c.bump()
}

func (c *LFUCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *LFUCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	return out
}

func (c *LFUCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	return out
}

func (c *LFUCache[K, V]) Items() []Pair[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	return out
}

func (c *LFUCache[K, V]) Iterate() *Iterator[K, V] { return newIterator[K, V](c, c.Items()) }

// LeastFrequentlyUsed returns the key at rank n in least-to-most-used
// order (ties broken by earliest insertion), or (zero, false) if n is
// out of range.
func (c *LFUCache[K, V]) LeastFrequentlyUsed(n int) (K, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := c.itemsWithFreqLocked()
	if n < 0 || n >= len(items) {
		var zero K
		return zero, false
	}
	sortByFreqSeq(items)
	return items[n].key, true
}

type lfuRanked[K comparable] struct {
	key       K
	freq, seq uint64
}

func (c *LFUCache[K, V]) itemsWithFreqLocked() []lfuRanked[K] {
	out := make([]lfuRanked[K], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) {
		m := c.tbl.Meta(idx)
		out = append(out, lfuRanked[K]{c.tbl.Key(idx), m.freq, m.seq})
	})
	return out
}

func sortByFreqSeq[K comparable](items []lfuRanked[K]) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			a, b := items[j-1], items[j]
			if a.freq < b.freq || (a.freq == b.freq && a.seq <= b.seq) {
				break
			}
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

// ItemsWithFrequency returns every live key paired with its current use
// count, in no particular order.
func (c *LFUCache[K, V]) ItemsWithFrequency() []FrequencyPair[K] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FrequencyPair[K], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) {
		out = append(out, FrequencyPair[K]{Key: c.tbl.Key(idx), Frequency: c.tbl.Meta(idx).freq})
	})
	return out
}

// FrequencyPair is one key and its current LFU use count.
type FrequencyPair[K comparable] struct {
	Key       K
	Frequency uint64
}

func (c *LFUCache[K, V]) Stats() Stats {
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
	_ Cache[string, int]     = (*LFUCache[string, int])(nil)
	_ Evictable[string, int] = (*LFUCache[string, int])(nil)
)
