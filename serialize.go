// serialize.go: byte-stable snapshot save/load (Save/Load)
//
// Snapshots are versioned gob streams over a cache's Items() so they
// round-trip across the standard library's stable gob wire format
// (grounded on agilira-metis's own gob usage for its disk snapshots).
// A snapshot only carries key/value pairs, not a policy's internal
// ordering/frequency/deadline state: Load always rebuilds that state by
// replaying Insert in the snapshot's iteration order, which is
// sufficient to restore membership and capacity behavior but not the
// exact pre-save recency/frequency ranking (see DESIGN.md).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"bytes"
	"encoding/gob"
)

// snapshotVersion is bumped whenever the on-wire layout changes
// incompatibly. Load refuses to read a mismatched major version.
const snapshotVersion = 1

type snapshot[K comparable, V any] struct {
	Version int
	Policy  Policy
	MaxSize int
	Items   []Pair[K, V]
}

// Save serializes every live entry in cache to a versioned gob blob.
func Save[K comparable, V any](cache Cache[K, V]) ([]byte, error) {
	snap := snapshot[K, V]{
		Version: snapshotVersion,
		Policy:  cache.Policy(),
		MaxSize: cache.MaxSize(),
		Items:   cache.Items(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, NewErrSerialization("encode snapshot", err)
	}
	return buf.Bytes(), nil
}

// Load replays a snapshot produced by Save into cache. The snapshot's
// policy must match cache.Policy(); a mismatched major version or
// policy fails with ErrCodeSerialization.
func Load[K comparable, V any](cache Cache[K, V], data []byte) error {
	var snap snapshot[K, V]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return NewErrSerialization("decode snapshot", err)
	}
	if snap.Version != snapshotVersion {
		return NewErrSerialization("incompatible snapshot version", nil)
	}
	if snap.Policy != cache.Policy() {
		return NewErrSerialization("snapshot policy does not match cache policy", nil)
	}
	cache.Clear(true)
	for _, p := range snap.Items {
		if _, _, err := cache.Insert(p.Key, p.Value); err != nil {
			return NewErrSerialization("replay snapshot entry", err)
		}
	}
	return nil
}
