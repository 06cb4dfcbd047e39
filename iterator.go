// iterator.go: snapshot-safe iteration bound to a generation counter
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

// Pair is one key/value observed by an Iterator or a snapshot (Items()).
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// generationSource is implemented by every policy cache; it lets Iterator
// validate itself without depending on a concrete cache type.
type generationSource interface {
	generation() uint64
}

// Iterator visits every live entry present at the moment it was created
// . Order is unspecified except where a policy documents
// an ordering helper (First/Last/LeastRecentlyUsed/...). Advancing after
// a concurrent mutation fails fast with ErrCodeConcurrentModification.
type Iterator[K comparable, V any] struct {
	owner      generationSource
	recordedAt uint64
	items      []Pair[K, V]
	pos        int
}

func newIterator[K comparable, V any](owner generationSource, snapshot []Pair[K, V]) *Iterator[K, V] {
	return &Iterator[K, V]{owner: owner, recordedAt: owner.generation(), items: snapshot}
}

// Next advances the iterator, returning the next pair and true, or a
// zero Pair and false once exhausted. err is non-nil (ErrConcurrentModification)
// if the cache was mutated since the iterator was created.
func (it *Iterator[K, V]) Next() (Pair[K, V], bool, error) {
	if cur := it.owner.generation(); cur != it.recordedAt {
		return Pair[K, V]{}, false, NewErrConcurrentModification(it.recordedAt, cur)
	}
	if it.pos >= len(it.items) {
		return Pair[K, V]{}, false, nil
	}
	item := it.items[it.pos]
	it.pos++
	return item, true, nil
}

// Remaining reports how many unvisited items the snapshot holds.
func (it *Iterator[K, V]) Remaining() int { return len(it.items) - it.pos }
