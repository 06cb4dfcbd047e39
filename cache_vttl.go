// cache_vttl.go: the per-key time-to-live eviction policy
//
// Unlike TTLCache, each entry carries its own deadline (or none), so
// expiry order does not coincide with insertion order. A min-heap over
// finite deadlines (container/heap) tracks the next entry to expire;
// entries with no deadline never enter the heap. Heap positions are
// kept in vttlMeta so an update or explicit removal can fix the heap in
// O(log n) rather than scanning it.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

const noDeadline int64 = -1

type vttlMeta struct {
	expireAt int64 // noDeadline if this entry never expires
	heapPos  int   // index into the cache's heap, -1 if not in it
}

type vttlHeapEntry struct {
	idx      int32
	expireAt int64
}

// vttlHeap is a container/heap min-heap ordered by expireAt, used only
// for entries that carry a finite deadline.
type vttlHeap[K comparable, V any] struct {
	entries []vttlHeapEntry
	tbl     *Table[K, V, vttlMeta]
}

func (h *vttlHeap[K, V]) Len() int { return len(h.entries) }
func (h *vttlHeap[K, V]) Less(i, j int) bool {
	return h.entries[i].expireAt < h.entries[j].expireAt
}
func (h *vttlHeap[K, V]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.tbl.Meta(h.entries[i].idx).heapPos = i
	h.tbl.Meta(h.entries[j].idx).heapPos = j
}
func (h *vttlHeap[K, V]) Push(x interface{}) {
	e := x.(vttlHeapEntry)
	h.tbl.Meta(e.idx).heapPos = len(h.entries)
	h.entries = append(h.entries, e)
}
func (h *vttlHeap[K, V]) Pop() interface{} {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}

// VTTLCache lets each key carry its own time-to-live, defaulting to no
// expiry when Insert is called without one .
type VTTLCache[K comparable, V any] struct {
	mu        sync.RWMutex
	tbl       *Table[K, V, vttlMeta]
	heap      *vttlHeap[K, V]
	order     []int32 // insertion order of never-expiring entries, for PopItem fallback
	maxSize   int
	gen       uint64
	cfg       Config
	stopSweep chan struct{}

	hits, misses, sets, deletes, evictions, expired uint64
}

// NewVTTL constructs a per-key time-to-live bounded cache.
func NewVTTL[K comparable, V any](cfg Config) *VTTLCache[K, V] {
	cfg.Validate()
	tbl := newTable[K, V, vttlMeta](16)
	c := &VTTLCache[K, V]{
		tbl:     tbl,
		heap:    &vttlHeap[K, V]{tbl: tbl},
		maxSize: effectiveMaxSize(cfg.MaxSize),
		cfg:     cfg,
	}
	if cfg.CleanupInterval > 0 {
		c.stopSweep = make(chan struct{})
		go c.sweepLoop(cfg.CleanupInterval)
	}
	return c
}

func (c *VTTLCache[K, V]) Close() {
	if c.stopSweep != nil {
		close(c.stopSweep)
	}
}

func (c *VTTLCache[K, V]) sweepLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.Expire()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *VTTLCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *VTTLCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }
func (c *VTTLCache[K, V]) now() int64         { return c.cfg.TimeProvider.Now() }

func (c *VTTLCache[K, V]) removeFromOrder(idx int32) {
	for i, v := range c.order {
		if v == idx {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// scheduleLocked registers idx's deadline in the heap (if finite) or the
// insertion-order fallback list (if none).
func (c *VTTLCache[K, V]) scheduleLocked(idx int32, expireAt int64) {
	m := c.tbl.Meta(idx)
	m.expireAt = expireAt
	if expireAt == noDeadline {
		m.heapPos = -1
		c.order = append(c.order, idx)
		return
	}
	heap.Push(c.heap, vttlHeapEntry{idx: idx, expireAt: expireAt})
}

// unscheduleLocked removes idx from whichever structure currently holds
// its deadline, ahead of an Erase or a reschedule.
func (c *VTTLCache[K, V]) unscheduleLocked(idx int32) {
	m := c.tbl.Meta(idx)
	if m.expireAt == noDeadline {
		c.removeFromOrder(idx)
		return
	}
	heap.Remove(c.heap, m.heapPos)
}

// reapExpiredLocked pops every heap entry whose deadline has passed.
func (c *VTTLCache[K, V]) reapExpiredLocked() []evictionEvent[K, V] {
	var out []evictionEvent[K, V]
	now := c.now()
	for c.heap.Len() > 0 && c.heap.entries[0].expireAt <= now {
		top := heap.Pop(c.heap).(vttlHeapEntry)
		k, v := c.tbl.Erase(top.idx)
		atomic.AddUint64(&c.expired, 1)
		c.cfg.MetricsCollector.RecordExpiration()
		out = append(out, evictionEvent[K, V]{k, v, EvictedExpired})
	}
	if len(out) > 0 {
		c.bump()
	}
	return out
}

// findLiveLocked looks up key, treating an already-expired entry as
// absent without waiting for the next sweep to reap it.
func (c *VTTLCache[K, V]) findLiveLocked(key K) (int32, bool) {
	idx, ok := c.tbl.Find(key)
	if !ok {
		return 0, false
	}
	m := c.tbl.Meta(idx)
	if m.expireAt != noDeadline && m.expireAt <= c.now() {
		return 0, false
	}
	return idx, true
}

// evictForCapacityLocked picks a victim when the cache is full: the
// earliest finite deadline if any exists, else the oldest never-expiring
// entry .
func (c *VTTLCache[K, V]) evictForCapacityLocked() (K, V, bool) {
	if c.heap.Len() > 0 {
		top := heap.Pop(c.heap).(vttlHeapEntry)
		k, v := c.tbl.Erase(top.idx)
		atomic.AddUint64(&c.evictions, 1)
		c.cfg.MetricsCollector.RecordEviction()
		return k, v, true
	}
	if len(c.order) > 0 {
		idx := c.order[0]
		c.order = c.order[1:]
		k, v := c.tbl.Erase(idx)
		atomic.AddUint64(&c.evictions, 1)
		c.cfg.MetricsCollector.RecordEviction()
		return k, v, true
	}
	var zk K
	var zv V
	return zk, zv, false
}

func (c *VTTLCache[K, V]) Len() int {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	n := c.tbl.Len()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return n
}
func (c *VTTLCache[K, V]) Capacity() int  { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *VTTLCache[K, V]) MaxSize() int   { return c.cfg.MaxSize }
func (c *VTTLCache[K, V]) Policy() Policy { return PolicyVTTL }
func (c *VTTLCache[K, V]) IsEmpty() bool  { return c.Len() == 0 }
func (c *VTTLCache[K, V]) IsFull() bool {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	full := c.tbl.Len() >= c.maxSize
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return full
}

func (c *VTTLCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.findLiveLocked(key)
	return ok
}

func (c *VTTLCache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	c.mu.RLock()
	idx, ok := c.findLiveLocked(key)
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

// GetWithExpire reads a value along with its remaining TTL. A returned
// duration of 0 with ok true means the key never expires.
func (c *VTTLCache[K, V]) GetWithExpire(key K) (V, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.findLiveLocked(key)
	if !ok {
		var zero V
		return zero, 0, false
	}
	m := c.tbl.Meta(idx)
	if m.expireAt == noDeadline {
		return c.tbl.Value(idx), 0, true
	}
	return c.tbl.Value(idx), time.Duration(m.expireAt - c.now()), true
}

// Insert upserts key with no expiry. Use InsertWithTTL to set a deadline.
func (c *VTTLCache[K, V]) Insert(key K, value V) (V, bool, error) {
	return c.insert(key, value, noDeadline)
}

// InsertWithTTL upserts key with an explicit per-key time-to-live. A
// ttl <= 0 means the key never expires (Open Question:
// re-inserting an existing key always replaces its deadline with the
// one given here, mirroring Insert's "last write wins" semantics for
// the value itself -- see DESIGN.md).
func (c *VTTLCache[K, V]) InsertWithTTL(key K, value V, ttl time.Duration) (V, bool, error) {
	expireAt := noDeadline
	if ttl > 0 {
		expireAt = c.now() + ttl.Nanoseconds()
	}
	return c.insert(key, value, expireAt)
}

func (c *VTTLCache[K, V]) insert(key K, value V, expireAt int64) (V, bool, error) {
	start := time.Now()
	var evicted []evictionEvent[K, V]

	c.mu.Lock()
	evicted = append(evicted, c.reapExpiredLocked()...)
	if idx, ok := c.tbl.Find(key); ok {
		old := c.tbl.Value(idx)
		c.tbl.SetValue(idx, value)
		c.unscheduleLocked(idx)
		c.scheduleLocked(idx, expireAt)
		c.bump()
		c.mu.Unlock()
		dispatchEvictions(c.cfg, evicted)
		atomic.AddUint64(&c.sets, 1)
		c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
		return old, true, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictForCapacityLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, value, func() vttlMeta { return vttlMeta{expireAt: noDeadline, heapPos: -1} })
	c.scheduleLocked(idx, expireAt)
	c.bump()
	c.mu.Unlock()

	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	var zero V
	return zero, false, nil
}

func (c *VTTLCache[K, V]) SetDefault(key K, def V) (V, error) {
	var evicted []evictionEvent[K, V]
	c.mu.Lock()
	evicted = append(evicted, c.reapExpiredLocked()...)
	if idx, ok := c.tbl.Find(key); ok {
		v := c.tbl.Value(idx)
		c.mu.Unlock()
		dispatchEvictions(c.cfg, evicted)
		return v, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictForCapacityLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, def, func() vttlMeta { return vttlMeta{expireAt: noDeadline, heapPos: -1} })
	c.scheduleLocked(idx, noDeadline)
	c.bump()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *VTTLCache[K, V]) Delete(key K) error {
	start := time.Now()
	c.mu.Lock()
	idx, ok := c.findLiveLocked(key)
	if !ok {
		c.mu.Unlock()
		return NewErrKeyNotFound(key)
	}
	c.unscheduleLocked(idx)
	c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	c.cfg.MetricsCollector.RecordDelete(time.Since(start).Nanoseconds())
	return nil
}

func (c *VTTLCache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	idx, ok := c.findLiveLocked(key)
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	c.unscheduleLocked(idx)
	_, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return v, true
}

// PopWithExpire removes key, returning its value and remaining TTL (0 for
// a never-expiring entry).
func (c *VTTLCache[K, V]) PopWithExpire(key K) (V, time.Duration, bool) {
	c.mu.Lock()
	idx, ok := c.findLiveLocked(key)
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, 0, false
	}
	m := c.tbl.Meta(idx)
	var remaining time.Duration
	if m.expireAt != noDeadline {
		remaining = time.Duration(m.expireAt - c.now())
	}
	c.unscheduleLocked(idx)
	_, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return v, remaining, true
}

// PopItem removes and returns the entry with the earliest finite
// deadline, or the oldest never-expiring entry if none carry one.
func (c *VTTLCache[K, V]) PopItem() (K, V, error) {
	c.mu.Lock()
	k, v, ok := c.evictForCapacityLocked()
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

// PopItemWithExpire removes and returns the policy's chosen victim along
// with its remaining TTL (0 for a never-expiring entry).
func (c *VTTLCache[K, V]) PopItemWithExpire() (K, V, time.Duration, error) {
	c.mu.Lock()
	var remaining time.Duration
	if c.heap.Len() > 0 {
		remaining = time.Duration(c.heap.entries[0].expireAt - c.now())
	}
	k, v, ok := c.evictForCapacityLocked()
	if !ok {
		c.mu.Unlock()
		var zk K
		var zv V
		return zk, zv, 0, NewErrKeyNotFound(nil)
	}
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return k, v, remaining, nil
}

// Drain repeats PopItem up to n times, returning the count removed.
func (c *VTTLCache[K, V]) Drain(n int) int {
	removed := 0
	for i := 0; i < n; i++ {
		if _, _, err := c.PopItem(); err != nil {
			break
		}
		removed++
	}
	return removed
}

func (c *VTTLCache[K, V]) Update(items map[K]V) error {
	for k, v := range items {
		if _, _, err := c.Insert(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *VTTLCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.heap.entries = c.heap.entries[:0]
	c.order = c.order[:0]
	c.bump()
}

// Expire forces an immediate sweep of every entry past its deadline.
func (c *VTTLCache[K, V]) Expire() int {
	c.mu.Lock()
	evicted := c.reapExpiredLocked()
	if len(evicted) > 0 {
		c.bump()
	}
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	return len(evicted)
}

func (c *VTTLCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *VTTLCache[K, V]) Keys() []K {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *VTTLCache[K, V]) Values() []V {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *VTTLCache[K, V]) Items() []Pair[K, V] {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *VTTLCache[K, V]) Iterate() *Iterator[K, V] { return newIterator[K, V](c, c.Items()) }

// ExpirePair pairs a key with its remaining time-to-live.
type ExpirePair[K comparable] struct {
	Key       K
	ExpiresAt time.Duration // remaining TTL; 0 means never expires
	HasExpiry bool
}

// ItemsWithExpire returns every live key paired with its remaining TTL.
func (c *VTTLCache[K, V]) ItemsWithExpire() []ExpirePair[K] {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	now := c.now()
	out := make([]ExpirePair[K], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) {
		m := c.tbl.Meta(idx)
		if m.expireAt == noDeadline {
			out = append(out, ExpirePair[K]{Key: c.tbl.Key(idx), HasExpiry: false})
			return
		}
		out = append(out, ExpirePair[K]{Key: c.tbl.Key(idx), ExpiresAt: time.Duration(m.expireAt - now), HasExpiry: true})
	})
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *VTTLCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits: atomic.LoadUint64(&c.hits), Misses: atomic.LoadUint64(&c.misses),
		Sets: atomic.LoadUint64(&c.sets), Deletes: atomic.LoadUint64(&c.deletes),
		Evictions: atomic.LoadUint64(&c.evictions), Expired: atomic.LoadUint64(&c.expired),
		Size: c.tbl.Len(), Capacity: c.tbl.Capacity(),
	}
}

var (
	_ Cache[string, int]     = (*VTTLCache[string, int])(nil)
	_ Evictable[string, int] = (*VTTLCache[string, int])(nil)
)
