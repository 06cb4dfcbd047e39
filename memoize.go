// memoize.go: single-flight memoization over a Cache[Args,V]
//
// Concurrent calls for the same arguments deduplicate into one execution
// of the wrapped function: a per-key inflightCall with a WaitGroup and a
// done channel broadcasts the result to every waiter without spawning a
// goroutine per waiter.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"bytes"
	"encoding/gob"
	"reflect"
	"sync"
	"sync/atomic"
)

// Event identifies whether a Memoized.Call resolved from the cache or
// ran the wrapped function.
type Event int

const (
	// EventMiss fires when the cache held no entry, fn was called, and its
	// result was cached.
	EventMiss Event = iota
	// EventHit fires when the cache already held the value.
	EventHit
)

// CopyLevel controls how a memoized value is copied before being
// returned to a caller, so mutation of one caller's result can never
// leak into the cached value or another caller's result.
type CopyLevel int

const (
	// CopyNone returns the cached value directly. Safe only when V is
	// immutable or callers are trusted not to mutate it.
	CopyNone CopyLevel = iota
	// CopyShallow copies one level of map/slice indirection via
	// reflection before returning. Does not deep-copy nested containers.
	CopyShallow
	// CopyDeep round-trips the value through encoding/gob, producing a
	// fully independent copy at the cost of a serialization pass. V and
	// every type it contains must be gob-encodable.
	CopyDeep
)

// inflightCall tracks one in-progress call so concurrent callers for
// the same arguments share its result instead of each invoking fn.
type inflightCall[V any] struct {
	wg    sync.WaitGroup
	val   V
	err   error
	done  chan struct{}
}

// Memoized wraps a function of Args with a cache keyed by its argument
// tuple, deduplicating concurrent calls for the same Args.
type Memoized[Args comparable, V any] struct {
	cache    Cache[Args, V]
	fn       func(Args) (V, error)
	copy     CopyLevel
	callback func(event Event, key Args, value V)
	inflight sync.Map // Args -> *inflightCall[V]

	calls, hits, misses uint64
}

// Memoize wraps fn with the given cache and copy level. cache may be any
// of the seven policy constructors (NewLRU, NewTTL, ...).
func Memoize[Args comparable, V any](cache Cache[Args, V], fn func(Args) (V, error), copyLevel CopyLevel) *Memoized[Args, V] {
	return &Memoized[Args, V]{cache: cache, fn: fn, copy: copyLevel}
}

// OnEvent registers a callback invoked with EventHit when Call returns a
// value already in the cache, or with EventMiss when Call ran fn and
// cached its result, passing the derived key and the (pre-copy) value.
// Calls that wait on another caller's in-flight computation, and calls
// whose fn returns an error, do not invoke it. A nil callback (the
// default) disables the hook.
func (m *Memoized[Args, V]) OnEvent(callback func(event Event, key Args, value V)) {
	m.callback = callback
}

// Call returns the cached result for args, computing it at most once
// across concurrent callers. A non-nil error from fn is never cached.
func (m *Memoized[Args, V]) Call(args Args) (V, error) {
	atomic.AddUint64(&m.calls, 1)

	if v, ok := m.cache.Get(args); ok {
		atomic.AddUint64(&m.hits, 1)
		if m.callback != nil {
			m.callback(EventHit, args, v)
		}
		return m.copyOut(v), nil
	}

	newFlight := &inflightCall[V]{done: make(chan struct{})}
	newFlight.wg.Add(1)
	actual, loaded := m.inflight.LoadOrStore(args, newFlight)
	flight := actual.(*inflightCall[V])

	if loaded {
		// Coalesced onto an in-flight call: counts as a hit, since this
		// caller never runs fn itself.
		atomic.AddUint64(&m.hits, 1)
		flight.wg.Wait()
		return m.copyOut(flight.val), flight.err
	}
	atomic.AddUint64(&m.misses, 1)

	defer func() {
		close(flight.done)
		flight.wg.Done()
		m.inflight.Delete(args)
	}()

	var result V
	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = recoverUserPanic("Memoized.Call", r)
			}
		}()
		result, callErr = m.fn(args)
	}()

	flight.val, flight.err = result, callErr
	if callErr == nil {
		m.cache.Insert(args, result)
		if m.callback != nil {
			m.callback(EventMiss, args, result)
		}
	}
	return m.copyOut(result), callErr
}

// CallBypass invokes fn directly for args, without consulting or
// updating the cache and without joining any in-flight call for the same
// args. This is the bypass form of the reserved cachebox__ignore call
// argument: use it when a caller needs a guaranteed-fresh result for one
// call while leaving the memoized cache untouched for everyone else.
func (m *Memoized[Args, V]) CallBypass(args Args) (V, error) {
	atomic.AddUint64(&m.calls, 1)

	var result V
	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = recoverUserPanic("Memoized.CallBypass", r)
			}
		}()
		result, callErr = m.fn(args)
	}()
	return m.copyOut(result), callErr
}

// copyOut applies the configured CopyLevel before handing a value back
// to the caller.
func (m *Memoized[Args, V]) copyOut(v V) V {
	switch m.copy {
	case CopyShallow:
		return shallowCopy(v).(V)
	case CopyDeep:
		return deepCopy(v).(V)
	default:
		return v
	}
}

func shallowCopy(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Cap())
		reflect.Copy(out, rv)
		return out.Interface()
	default:
		return v
	}
}

func deepCopy(v interface{}) interface{} {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return v
	}
	out := reflect.New(reflect.TypeOf(v))
	if err := gob.NewDecoder(&buf).Decode(out.Interface()); err != nil {
		return v
	}
	return out.Elem().Interface()
}

// CacheClear clears the memoization cache. reuse=true keeps backing
// capacity (Clear semantics).
func (m *Memoized[Args, V]) CacheClear(reuse bool) { m.cache.Clear(reuse) }

// MemoInfo reports call/hit/miss counters alongside the underlying
// cache's own statistics, mirroring cachebox's cache_info().
type MemoInfo struct {
	Calls, Hits, Misses uint64
	MaxSize             int // the backing cache's MaxSize (0 means unbounded)
	CacheStats          Stats
}

// CacheInfo reports memoization-level and cache-level statistics.
func (m *Memoized[Args, V]) CacheInfo() MemoInfo {
	return MemoInfo{
		Calls:      atomic.LoadUint64(&m.calls),
		Hits:       atomic.LoadUint64(&m.hits),
		Misses:     atomic.LoadUint64(&m.misses),
		MaxSize:    m.cache.MaxSize(),
		CacheStats: m.cache.Stats(),
	}
}
