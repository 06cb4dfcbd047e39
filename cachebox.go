// cachebox.go: package-level constants and the shared Policy enumeration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cachebox

const (
	// Version of the cachebox library.
	Version = "v0.1.0-dev"

	// DefaultMaxSize is a conventional bound of 10,000 entries. No
	// constructor applies it: a Config whose MaxSize is 0 is unbounded.
	DefaultMaxSize = 10_000

	// minTableCapacity is the smallest backing table ever allocated,
	// regardless of requested MaxSize.
	minTableCapacity = 16

	// maxLoadFactor bounds live entries over table capacity; the table
	// grows once this ratio would be exceeded by the next insert.
	maxLoadFactor = 0.875
)

// Policy identifies which eviction engine backs a Cache.
type Policy int

const (
	// PolicyNone rejects insertion past the bound; no eviction occurs.
	PolicyNone Policy = iota
	// PolicyFIFO evicts the oldest inserted entry.
	PolicyFIFO
	// PolicyLRU evicts the least-recently-touched entry.
	PolicyLRU
	// PolicyLFU evicts the least-frequently-touched entry.
	PolicyLFU
	// PolicyRR evicts a uniformly random live entry.
	PolicyRR
	// PolicyTTL expires entries after a single, cache-wide duration.
	PolicyTTL
	// PolicyVTTL expires entries after a per-entry deadline.
	PolicyVTTL
)

// String renders the policy name, mainly for logging and error context.
func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyFIFO:
		return "fifo"
	case PolicyLRU:
		return "lru"
	case PolicyLFU:
		return "lfu"
	case PolicyRR:
		return "rr"
	case PolicyTTL:
		return "ttl"
	case PolicyVTTL:
		return "vttl"
	default:
		return "unknown"
	}
}

// unbounded is the effective maxsize used internally when a caller
// passes 0: 0 is the caller-facing "unbounded" sentinel, the platform's
// largest positive int is the internal value.
const unbounded = int(^uint(0) >> 1)

// effectiveMaxSize normalizes the caller-facing maxsize sentinel.
func effectiveMaxSize(maxsize int) int {
	if maxsize == 0 {
		return unbounded
	}
	return maxsize
}
