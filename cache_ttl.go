// cache_ttl.go: the uniform time-to-live eviction policy
//
// Every entry shares the cache-wide TTL from Config, so insertion order
// and expiry order coincide: the ring used to track insertion order
// doubles as the expiry queue, exactly as FIFOCache's ring tracks
// insertion order for capacity eviction.
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

type ttlMeta struct {
	prev, next int32
	expireAt   int64 // nanoseconds, TimeProvider epoch
}

// TTLCache evicts the oldest entry for capacity, and lazily (plus on an
// optional background sweep) reaps entries past their shared TTL.
type TTLCache[K comparable, V any] struct {
	mu         sync.RWMutex
	tbl        *Table[K, V, ttlMeta]
	head, tail int32
	maxSize    int
	ttl        time.Duration
	gen        uint64
	cfg        Config
	stopSweep  chan struct{}

	hits, misses, sets, deletes, evictions, expired uint64
}

// NewTTL constructs a cache where every entry expires cfg.TTL after
// insertion or last update. cfg.TTL must be > 0.
func NewTTL[K comparable, V any](cfg Config) (*TTLCache[K, V], error) {
	cfg.Validate()
	if cfg.TTL <= 0 {
		return nil, NewErrInvalidArgument("ttl must be > 0 for a TTL cache", "ttl", cfg.TTL)
	}
	c := &TTLCache[K, V]{
		tbl: newTable[K, V, ttlMeta](16), head: -1, tail: -1,
		maxSize: effectiveMaxSize(cfg.MaxSize), ttl: cfg.TTL, cfg: cfg,
	}
	if cfg.CleanupInterval > 0 {
		c.stopSweep = make(chan struct{})
		go c.sweepLoop(cfg.CleanupInterval)
	}
	return c, nil
}

// Close stops the background cleanup sweep, if one was started.
func (c *TTLCache[K, V]) Close() {
	if c.stopSweep != nil {
		close(c.stopSweep)
	}
}

func (c *TTLCache[K, V]) sweepLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.Expire(false)
		case <-c.stopSweep:
			return
		}
	}
}

func (c *TTLCache[K, V]) generation() uint64 { return atomic.LoadUint64(&c.gen) }
func (c *TTLCache[K, V]) bump()              { atomic.AddUint64(&c.gen, 1) }

func (c *TTLCache[K, V]) pushBack(idx int32, expireAt int64) {
	m := c.tbl.Meta(idx)
	m.prev, m.next, m.expireAt = c.tail, -1, expireAt
	if c.tail != -1 {
		c.tbl.Meta(c.tail).next = idx
	} else {
		c.head = idx
	}
	c.tail = idx
}

func (c *TTLCache[K, V]) unlink(idx int32) {
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

func (c *TTLCache[K, V]) now() int64 { return c.cfg.TimeProvider.Now() }

// reapExpiredLocked removes every head entry past its deadline, in
// order, returning the reaped pairs for OnExpire dispatch.
func (c *TTLCache[K, V]) reapExpiredLocked() []evictionEvent[K, V] {
	var out []evictionEvent[K, V]
	now := c.now()
	for c.head != -1 && c.tbl.Meta(c.head).expireAt <= now {
		idx := c.head
		c.unlink(idx)
		k, v := c.tbl.Erase(idx)
		atomic.AddUint64(&c.expired, 1)
		c.cfg.MetricsCollector.RecordExpiration()
		out = append(out, evictionEvent[K, V]{k, v, EvictedExpired})
	}
	if len(out) > 0 {
		c.bump()
	}
	return out
}

func (c *TTLCache[K, V]) evictOldestLocked() (K, V, bool) {
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

// findLiveLocked looks up key, treating it as absent if its deadline has
// already passed. It does not remove the expired entry; that happens on
// the next reap (a mutating operation, Len, a snapshot, or Expire).
func (c *TTLCache[K, V]) findLiveLocked(key K) (int32, bool) {
	idx, ok := c.tbl.Find(key)
	if !ok {
		return 0, false
	}
	if c.tbl.Meta(idx).expireAt <= c.now() {
		return 0, false
	}
	return idx, true
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	n := c.tbl.Len()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return n
}
func (c *TTLCache[K, V]) Capacity() int  { c.mu.RLock(); defer c.mu.RUnlock(); return c.tbl.Capacity() }
func (c *TTLCache[K, V]) MaxSize() int   { return c.cfg.MaxSize }
func (c *TTLCache[K, V]) Policy() Policy { return PolicyTTL }
func (c *TTLCache[K, V]) IsEmpty() bool  { return c.Len() == 0 }
func (c *TTLCache[K, V]) IsFull() bool {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	full := c.tbl.Len() >= c.maxSize
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return full
}

func (c *TTLCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.findLiveLocked(key)
	return ok
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
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

// GetWithExpire reads a value along with its remaining time-to-live.
func (c *TTLCache[K, V]) GetWithExpire(key K) (V, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.findLiveLocked(key)
	if !ok {
		var zero V
		return zero, 0, false
	}
	remaining := time.Duration(c.tbl.Meta(idx).expireAt - c.now())
	return c.tbl.Value(idx), remaining, true
}

func (c *TTLCache[K, V]) Insert(key K, value V) (V, bool, error) {
	start := time.Now()
	var evicted []evictionEvent[K, V]

	c.mu.Lock()
	evicted = append(evicted, c.reapExpiredLocked()...)
	expireAt := c.now() + c.ttl.Nanoseconds()
	if idx, ok := c.tbl.Find(key); ok {
		old := c.tbl.Value(idx)
		c.tbl.SetValue(idx, value)
		c.unlink(idx)
		c.pushBack(idx, expireAt)
		c.bump()
		c.mu.Unlock()
		dispatchEvictions(c.cfg, evicted)
		atomic.AddUint64(&c.sets, 1)
		c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
		return old, true, nil
	}
	if c.tbl.Len() >= c.maxSize {
		if k, v, ok := c.evictOldestLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	idx, _, _ := c.tbl.InsertOrUpdate(key, value, func() ttlMeta { return ttlMeta{-1, -1, 0} })
	c.pushBack(idx, expireAt)
	c.bump()
	c.mu.Unlock()

	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	var zero V
	return zero, false, nil
}

func (c *TTLCache[K, V]) SetDefault(key K, def V) (V, error) {
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
		if k, v, ok := c.evictOldestLocked(); ok {
			evicted = append(evicted, evictionEvent[K, V]{k, v, EvictedCapacity})
		}
	}
	expireAt := c.now() + c.ttl.Nanoseconds()
	idx, _, _ := c.tbl.InsertOrUpdate(key, def, func() ttlMeta { return ttlMeta{-1, -1, 0} })
	c.pushBack(idx, expireAt)
	c.bump()
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	atomic.AddUint64(&c.sets, 1)
	return def, nil
}

func (c *TTLCache[K, V]) Delete(key K) error {
	start := time.Now()
	c.mu.Lock()
	idx, ok := c.findLiveLocked(key)
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

func (c *TTLCache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	idx, ok := c.findLiveLocked(key)
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

// PopWithExpire removes key, returning its value and remaining TTL.
func (c *TTLCache[K, V]) PopWithExpire(key K) (V, time.Duration, bool) {
	c.mu.Lock()
	idx, ok := c.findLiveLocked(key)
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, 0, false
	}
	remaining := time.Duration(c.tbl.Meta(idx).expireAt - c.now())
	c.unlink(idx)
	_, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return v, remaining, true
}

// PopItem removes and returns the oldest entry, live or not.
func (c *TTLCache[K, V]) PopItem() (K, V, error) {
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

// PopItemWithExpire removes and returns the oldest entry with its
// remaining TTL.
func (c *TTLCache[K, V]) PopItemWithExpire() (K, V, time.Duration, error) {
	c.mu.Lock()
	if c.head == -1 {
		c.mu.Unlock()
		var zk K
		var zv V
		return zk, zv, 0, NewErrKeyNotFound(nil)
	}
	idx := c.head
	remaining := time.Duration(c.tbl.Meta(idx).expireAt - c.now())
	c.unlink(idx)
	k, v := c.tbl.Erase(idx)
	c.bump()
	c.mu.Unlock()
	atomic.AddUint64(&c.deletes, 1)
	return k, v, remaining, nil
}

// Drain repeats PopItem up to n times, returning the count removed.
func (c *TTLCache[K, V]) Drain(n int) int {
	removed := 0
	for i := 0; i < n; i++ {
		if _, _, err := c.PopItem(); err != nil {
			break
		}
		removed++
	}
	return removed
}

func (c *TTLCache[K, V]) Update(items map[K]V) error {
	for k, v := range items {
		if _, _, err := c.Insert(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *TTLCache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.Reset(reuse)
	c.head, c.tail = -1, -1
	c.bump()
}

// Expire forces an immediate sweep of every entry past its deadline,
// reports how many were removed, and dispatches OnExpire for each.
func (c *TTLCache[K, V]) Expire(reuse bool) int {
	c.mu.Lock()
	evicted := c.reapExpiredLocked()
	if len(evicted) > 0 {
		c.bump()
	}
	_ = reuse
	c.mu.Unlock()
	dispatchEvictions(c.cfg, evicted)
	return len(evicted)
}

func (c *TTLCache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tbl.ShrinkToFit()
}

func (c *TTLCache[K, V]) Keys() []K {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	out := make([]K, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Key(idx)) })
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *TTLCache[K, V]) Values() []V {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	out := make([]V, 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, c.tbl.Value(idx)) })
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *TTLCache[K, V]) Items() []Pair[K, V] {
	c.mu.Lock()
	expired := c.reapExpiredLocked()
	out := make([]Pair[K, V], 0, c.tbl.Len())
	c.tbl.ForEach(func(idx int32) { out = append(out, Pair[K, V]{c.tbl.Key(idx), c.tbl.Value(idx)}) })
	c.mu.Unlock()
	dispatchEvictions(c.cfg, expired)
	return out
}

func (c *TTLCache[K, V]) Iterate() *Iterator[K, V] { return newIterator[K, V](c, c.Items()) }

// First returns the key at rank n from the head (soonest to expire).
func (c *TTLCache[K, V]) First(n int) (K, bool) {
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

// Last returns the most-recently-inserted (latest-expiring) key.
func (c *TTLCache[K, V]) Last() (K, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tail == -1 {
		var zero K
		return zero, false
	}
	return c.tbl.Key(c.tail), true
}

func (c *TTLCache[K, V]) Stats() Stats {
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
	_ Cache[string, int]     = (*TTLCache[string, int])(nil)
	_ Evictable[string, int] = (*TTLCache[string, int])(nil)
)
