// table.go: the HashTable substrate shared by every policy
//
// An open-addressed table using Robin Hood probing with backward-shift
// deletion. Entries live in a separate arena indexed by a stable int32
// "slot handle"; the probe array (buckets+dist) stores only arena
// indices. A policy's auxiliary structure (an intrusive list, a packed
// array, a heap) references these stable arena indices directly, so
// growth/rehash never needs to repoint them (see DESIGN.md for the
// tradeoffs of indexing auxiliary structures by arena slot instead of
// by bucket position).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

// tableEntry is one arena slot: (hash, key, value, policy metadata).
type tableEntry[K comparable, V any, M any] struct {
	hash  uint64
	key   K
	value V
	meta  M
	used  bool
	bpos  int32 // current position in buckets/dist holding this arena index
}

// Table is the generic open-addressed hash table backing every cachebox
// policy. M is the policy-specific per-entry metadata.
type Table[K comparable, V any, M any] struct {
	hasher  hasher[K]
	buckets []int32 // arena index + 1; 0 means empty
	dist    []int16 // robin-hood probe distance; -1 means empty
	arena   []tableEntry[K, V, M]
	free    []int32 // reusable arena slots left by Erase
	size    int
	mask    uint64
}

// newTable allocates a table with room for at least initialCapacity
// entries at maxLoadFactor.
func newTable[K comparable, V any, M any](initialCapacity int) *Table[K, V, M] {
	cap := minTableCapacity
	for float64(cap)*maxLoadFactor < float64(initialCapacity) {
		cap *= 2
	}
	t := &Table[K, V, M]{hasher: newHasher[K]()}
	t.allocBuckets(cap)
	return t
}

func (t *Table[K, V, M]) allocBuckets(cap int) {
	t.buckets = make([]int32, cap)
	t.dist = make([]int16, cap)
	for i := range t.dist {
		t.dist[i] = -1
	}
	t.mask = uint64(cap - 1)
}

// Len reports the number of live entries.
func (t *Table[K, V, M]) Len() int { return t.size }

// Capacity reports the current backing array size.
func (t *Table[K, V, M]) Capacity() int { return len(t.buckets) }

func (t *Table[K, V, M]) hashOf(key K) uint64 { return t.hasher.hash(key) }

// Find looks up key, returning its arena index. O(1) expected.
func (t *Table[K, V, M]) Find(key K) (int32, bool) {
	h := t.hashOf(key)
	return t.findByHash(h, key)
}

func (t *Table[K, V, M]) findByHash(h uint64, key K) (int32, bool) {
	pos := h & t.mask
	var dist int16
	for {
		d := t.dist[pos]
		if d == -1 || d < dist {
			return 0, false
		}
		idx := t.buckets[pos] - 1
		e := &t.arena[idx]
		if e.hash == h && e.key == key {
			return idx, true
		}
		pos = (pos + 1) & t.mask
		dist++
	}
}

// At returns a pointer to the arena entry for idx. Valid only until the
// next InsertOrUpdate on this table (which may grow, and so move, the
// arena); callers must not retain it across a mutation.
func (t *Table[K, V, M]) At(idx int32) *tableEntry[K, V, M] { return &t.arena[idx] }

// Key, Value, Meta are convenience accessors over At.
func (t *Table[K, V, M]) Key(idx int32) K     { return t.arena[idx].key }
func (t *Table[K, V, M]) Value(idx int32) V   { return t.arena[idx].value }
func (t *Table[K, V, M]) Meta(idx int32) *M   { return &t.arena[idx].meta }
func (t *Table[K, V, M]) SetValue(idx int32, v V) { t.arena[idx].value = v }

// InsertOrUpdate inserts key/value if absent (calling makeMeta for the new
// entry's metadata) or overwrites the value if present, leaving metadata
// untouched on update. Returns the arena index, the previous value (if
// any), and whether the key already existed.
func (t *Table[K, V, M]) InsertOrUpdate(key K, value V, makeMeta func() M) (idx int32, old V, hadOld bool) {
	h := t.hashOf(key)
	if existing, ok := t.findByHash(h, key); ok {
		e := &t.arena[existing]
		old = e.value
		e.value = value
		return existing, old, true
	}

	t.growIfNeeded()
	newIdx := t.allocEntry(h, key, value, makeMeta())
	t.robinHoodInsert(newIdx, h)
	t.size++
	return newIdx, old, false
}

// allocEntry reserves an arena slot for a brand-new entry without linking
// it into the probe array yet.
func (t *Table[K, V, M]) allocEntry(h uint64, key K, value V, meta M) int32 {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.arena[idx] = tableEntry[K, V, M]{hash: h, key: key, value: value, meta: meta, used: true}
		return idx
	}
	t.arena = append(t.arena, tableEntry[K, V, M]{hash: h, key: key, value: value, meta: meta, used: true})
	return int32(len(t.arena) - 1)
}

func (t *Table[K, V, M]) growIfNeeded() {
	if float64(t.size+1) > float64(len(t.buckets))*maxLoadFactor {
		t.rehash(len(t.buckets) * 2)
	}
}

// rehash rebuilds the probe array at the requested capacity (rounded up
// to a power of two), reinserting every live arena entry by its existing
// (unchanged) arena index.
func (t *Table[K, V, M]) rehash(capacityHint int) {
	cap := minTableCapacity
	for cap < capacityHint {
		cap *= 2
	}
	t.allocBuckets(cap)
	for idx := range t.arena {
		if t.arena[idx].used {
			t.robinHoodInsert(int32(idx), t.arena[idx].hash)
		}
	}
}

// robinHoodInsert places arenaIdx into the probe array, displacing
// richer (lower-distance) entries along the way per Robin Hood hashing.
func (t *Table[K, V, M]) robinHoodInsert(arenaIdx int32, h uint64) {
	pos := h & t.mask
	curIdx := arenaIdx
	var curDist int16
	for {
		d := t.dist[pos]
		if d == -1 {
			t.buckets[pos] = curIdx + 1
			t.dist[pos] = curDist
			t.arena[curIdx].bpos = int32(pos)
			return
		}
		if d < curDist {
			existingIdx := t.buckets[pos] - 1
			existingDist := d
			t.buckets[pos] = curIdx + 1
			t.dist[pos] = curDist
			t.arena[curIdx].bpos = int32(pos)
			curIdx = existingIdx
			curDist = existingDist
		}
		pos = (pos + 1) & t.mask
		curDist++
	}
}

// Erase removes the entry at arena index idx, backward-shifting the
// probe chain behind it so the table never accumulates tombstones.
func (t *Table[K, V, M]) Erase(idx int32) (K, V) {
	e := &t.arena[idx]
	key, val := e.key, e.value

	pos := uint64(e.bpos)
	t.buckets[pos] = 0
	t.dist[pos] = -1

	next := (pos + 1) & t.mask
	for t.dist[next] > 0 {
		t.buckets[pos] = t.buckets[next]
		t.dist[pos] = t.dist[next] - 1
		movedIdx := t.buckets[pos] - 1
		t.arena[movedIdx].bpos = int32(pos)

		t.buckets[next] = 0
		t.dist[next] = -1

		pos = next
		next = (next + 1) & t.mask
	}

	var zeroK K
	var zeroV V
	var zeroM M
	e.key, e.value, e.meta, e.used = zeroK, zeroV, zeroM, false
	t.free = append(t.free, idx)
	t.size--
	return key, val
}

// EraseKey removes key if present, reporting whether it was.
func (t *Table[K, V, M]) EraseKey(key K) (idx int32, ok bool) {
	idx, ok = t.Find(key)
	if !ok {
		return 0, false
	}
	t.Erase(idx)
	return idx, true
}

// Reserve ensures capacity for size()+extra without triggering a resize
// on the next that many inserts.
func (t *Table[K, V, M]) Reserve(extra int) {
	need := t.size + extra
	if float64(need) > float64(len(t.buckets))*maxLoadFactor {
		t.rehash(int(float64(need)/maxLoadFactor) + 1)
	}
}

// ShrinkToFit reallocates the probe array to the smallest capacity that
// holds the live entries at maxLoadFactor.
func (t *Table[K, V, M]) ShrinkToFit() {
	t.rehash(int(float64(t.size)/maxLoadFactor) + 1)
	if len(t.free) > 0 {
		t.compactArena()
	}
}

// compactArena never drops or renumbers arena slots: freed slots stay in
// the arena and are handed out again by allocEntry. It only empties the
// free list when every arena slot is live.
func (t *Table[K, V, M]) compactArena() {
	if t.size == len(t.arena) {
		t.free = t.free[:0]
		return
	}
	// A bare compaction here would renumber arena indices and silently
	// invalidate every policy's auxiliary structure, violating the
	// stable-slot-handle guarantee the rest of the engine relies on.
	// ShrinkToFit therefore only tightens the probe array; the arena
	// itself is compacted lazily, the next time the table is rebuilt
	// from scratch (Clear, or Load).
}

// ForEach visits every live arena index in index order. fn must not
// mutate the table.
func (t *Table[K, V, M]) ForEach(fn func(idx int32)) {
	for idx := range t.arena {
		if t.arena[idx].used {
			fn(int32(idx))
		}
	}
}

// Reset clears the table back to empty. If reuse is true the backing
// arrays are kept (zeroed in place); otherwise they are released and
// reallocated at the minimum capacity.
func (t *Table[K, V, M]) Reset(reuse bool) {
	if reuse {
		for i := range t.dist {
			t.dist[i] = -1
			t.buckets[i] = 0
		}
		for i := range t.arena {
			var zero tableEntry[K, V, M]
			t.arena[i] = zero
		}
		t.arena = t.arena[:0]
		t.free = t.free[:0]
		t.size = 0
		return
	}
	t.allocBuckets(minTableCapacity)
	t.arena = nil
	t.free = nil
	t.size = 0
}
