// cache_rr.go: the random-replacement eviction policy
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// rrMeta records the entry's current position in the packed live-index
// array, so eviction, delete, and swap-remove are all O(1).
type rrMeta struct {
	pos int32
}

// RRCache evicts a uniformly random live entry once MaxSize is reached
// . live holds arena indices for every present entry;
// rrMeta.pos mirrors each entry's position in live so removal can
// swap-with-last without a linear scan.
type RRCache[K comparable, V any] struct {
	mu      sync.RWMutex
	tbl     *Table[K, V, rrMeta]
	live    []int32
	maxSize int
	gen     uint64
	cfg     Config
	rngMu   sync.Mutex // guards rng: *rand.Rand is unsafe for concurrent use, and RandomKey only holds mu for reading
	rng     *rand.Rand

	hits, misses, sets, deletes, evictions uint64
}

// NewRR constructs a random-replacement bounded cache.
func NewRR[K comparable, V any](cfg Config) *RRCache[K, V] {
	cfg.Validate()
	return &RRCache[K, V]{
		tbl:     newTable[K, V, rrMeta](16),
		maxSize: effectiveMaxSize(cfg.MaxSize),
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.TimeProvider.Now())),
	}
}

func (c *RRCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *RRCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }

// randIntn is safe to call under either mu.Lock or mu.RLock: rng state
// is guarded by its own mutex, since *rand.Rand is not itself safe for
// concurrent use and RandomKey only takes a shared lock on mu.
func (c *RRCache[K, V]) randIntn(n int) int {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Intn(n)
}

func (c *RRCache[K, V]) track(idx int32) {
	pos := int32(len(c.live))
	c.live = append(c.live, idx)
	c.tbl.Meta(idx).pos = pos
}

// untrack swap-removes idx from live in O(1).
func (c *RRCache[K, V]) untrack(idx int32) {
	pos := c.tbl.Meta(idx).pos
	last := int32(len(c.live)) - 1
	if pos != last {
		moved := c.live[last]
		c.live[pos] = moved
		c.tbl.Meta(moved).pos = pos
	}
	c.live = c.live[:last]
}

func (c *RRCache[K, V]) evictRandomLocked() (K, V, bool) {
	if len(c.live) == 0 {
		var zk K
		var zv V
		return zk, zv, false
	}
	pick := c.randIntn(len(c.live))
	idx := c.live[pick]
	c.untrack(idx)
	k, v := c.tbl.Erase(idx)
	atomic.AddUint64(&c.evictions, 1)
	c.cfg.MetricsCollector.RecordEviction()
	return k, v, true
}

func (c *RRCache[K, V]) Len() int       { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Len() }
func (c *RRCache[K, V]) Capacity() int  { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *RRCache[K, V]) MaxSize() int   { return c.cfg.MaxSize }
func (c *RRCache[K, V]) Policy() Policy { return PolicyRR }
func (c *RRCache[K, V]) IsEmpty() bool  { return c.Len() == 0 }
func (c *RRCache[K, V]) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tbl.Len() >= c.maxSize
}

func (c *RRCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tbl.Find(key)
	return ok
}

func (c *RRCache[K, V]) Get(key K) (V, bool) {
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

func (c *RRCache[K, V]) Insert(key K, value V) (V, bool, error) {
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
		if k, v, ok := c.evictRandomLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, value, func() rrMeta { return rrMeta{} })
	c.track(idx)
	c.bump()
	c.mu.Unlock()

	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	var zero V
	return zero, false, nil
}

func (c *RRCache[K, V]) SetDefault(key K, def V) (V, error) {
	var evicted []evictionEvent[K, V]
	c.mu.Lock()
	if idx, ok := c.tbl.Find(key); ok {
		v := c.tbl.Value(idx)
		c.mu.Unlock()
		return v, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictRandomLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, def, func() rrMeta { return rrMeta{} })
	c.track(idx)
	c.bump()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *RRCache[K, V]) Delete(key K) error {
	start := time.Now()
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		c.mu.Unlock()
		return NewErrKeyNotFound(key)
	}
	c.untrack(idx)
	c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	c.cfg.MetricsCollector.RecordDelete(time.Since(start).Nanoseconds())
	return nil
}

func (c *RRCache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	idx, ok := c.tbl.Find(key)
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	c.untrack(idx)
	_, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return v, true
}

// PopItem removes and returns a uniformly random live entry.
func (c *RRCache[K, V]) PopItem() (K, V, error) {
	c.mu.Lock()
	k, v, ok := c.evictRandomLocked()
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
func (c *RRCache[K, V]) Drain(n int) int {
	removed := 0
	for i := 0; i < n; i++ {
		if _, _, err := c.PopItem(); err != nil {
			break
		}
		removed++
	}
	return removed
}

func (c *RRCache[K, V]) Update(items map[K]V) error {
	for k, v := range items {
		if _, _, err := c.Insert(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *RRCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.live = c.live[:0]
	c.bump()
}

func (c *RRCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *RRCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	return out
}

func (c *RRCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	return out
}

func (c *RRCache[K, V]) Items() []Pair[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	return out
}

func (c *RRCache[K, V]) Iterate() *Iterator[K, V] { return newIterator[K, V](c, c.Items()) }

// RandomKey returns a uniformly random live key without removing it.
func (c *RRCache[K, V]) RandomKey() (K, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.live) == 0 {
		var zero K
		return zero, false
	}
	idx := c.live[c.randIntn(len(c.live))]
	return c.tbl.Key(idx), true
}

func (c *RRCache[K, V]) Stats() Stats {
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
	_ Cache[string, int]     = (*RRCache[string, int])(nil)
	_ Evictable[string, int] = (*RRCache[string, int])(nil)
)
