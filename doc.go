// Package cachebox provides a library of in-process, thread-safe, bounded
// associative caches keyed by arbitrary comparable values.
//
// # Overview
//
// Seven interchangeable eviction policies share one generic hash-table
// substrate behind a common map-like surface:
//
//   - None  (NoneCache[K,V]): a bounded map; insertion past capacity fails.
//   - FIFO  (FIFOCache[K,V]): evicts the oldest inserted entry.
//   - LRU   (LRUCache[K,V]):  evicts the least-recently-touched entry.
//   - LFU   (LFUCache[K,V]):  evicts the least-frequently-touched entry.
//   - RR    (RRCache[K,V]):   evicts a uniformly random live entry.
//   - TTL   (TTLCache[K,V]):  expires entries after one cache-wide duration.
//   - VTTL  (VTTLCache[K,V]): expires entries after a per-entry deadline.
//
// On top of these sits Memoize, a function-memoization wrapper with
// single-flight cache-stampede avoidance and configurable result-copy
// semantics.
//
// # Quick start
//
//	c := cachebox.NewLRU[string, int](cachebox.Config{MaxSize: 1024})
//	c.Insert("a", 1)
//	v, ok := c.Get("a")
//
// # Concurrency
//
// Every cache is safe for concurrent use: a single reader-writer lock
// guards the table and the policy's auxiliary structure, and a
// monotonically increasing generation counter invalidates iterators
// started before a concurrent mutation.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox
