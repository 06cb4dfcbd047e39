// hasher.go: generic key hashing for the HashTable substrate
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "github.com/dolthub/maphash"

// hasher produces the 64-bit hash the table's probing needs for an
// arbitrary comparable key, without restricting K to string and without
// reflection on the hot path. dolthub/maphash wraps hash/maphash with a
// generic, per-type seed (see DESIGN.md).
type hasher[K comparable] struct {
	h maphash.Hasher[K]
}

func newHasher[K comparable]() hasher[K] {
	return hasher[K]{h: maphash.NewHasher[K]()}
}

func (h hasher[K]) hash(key K) uint64 {
	return h.h.Hash(key)
}
