// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	c := NewLFU[string, int](Config{MaxSize: 2})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Get("a")
	c.Get("a") // a: freq 2, b: freq 0
	c.Insert("c", 3) // should evict "b"

	if c.Contains("b") {
		t.Fatal("expected b evicted (lowest frequency)")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Fatal("expected a and c present")
	}
}

func TestLFUTieBreaksByInsertionOrder(t *testing.T) {
	c := NewLFU[string, int](Config{MaxSize: 2})
	c.Insert("a", 1)
	c.Insert("b", 2)
	// both at freq 0; "a" inserted first, should be evicted first.
	c.Insert("c", 3)

	if c.Contains("a") {
		t.Fatal("expected a evicted (earliest insertion among ties)")
	}
	if !c.Contains("b") || !c.Contains("c") {
		t.Fatal("expected b and c present")
	}
}

func TestLFULeastFrequentlyUsedRank(t *testing.T) {
	c := NewLFU[string, int](Config{})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	c.Get("c")
	c.Get("c") // c: freq 2, a: freq 0, b: freq 0 (a inserted before b)

	want := []string{"a", "b", "c"}
	for i, k := range want {
		got, ok := c.LeastFrequentlyUsed(i)
		if !ok || got != k {
			t.Fatalf("LeastFrequentlyUsed(%d) = (%s, %v), want %s", i, got, ok, k)
		}
	}
	if _, ok := c.LeastFrequentlyUsed(3); ok {
		t.Fatal("expected out-of-range rank to report absent")
	}
}

func TestLFUPeekDoesNotIncrementFrequency(t *testing.T) {
	c := NewLFU[string, int](Config{MaxSize: 2})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Peek("a")
	c.Insert("c", 3) // a and b both still freq 0; a inserted first so evicted

	if c.Contains("a") {
		t.Fatal("expected a evicted since Peek doesn't raise frequency")
	}
}
