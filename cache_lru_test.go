// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestLRUGetTouchesRecency(t *testing.T) {
	c := NewLRU[string, int](Config{MaxSize: 2})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Get("a") // a becomes most-recently-used
	c.Insert("c", 3) // should evict "b", the least recently used

	if c.Contains("b") {
		t.Fatal("expected b evicted")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Fatal("expected a and c present")
	}
}

func TestLRUPeekDoesNotTouch(t *testing.T) {
	c := NewLRU[string, int](Config{MaxSize: 2})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Peek("a") // must not affect recency
	c.Insert("c", 3) // should still evict "a"

	if c.Contains("a") {
		t.Fatal("expected a evicted since Peek doesn't touch recency")
	}
	if !c.Contains("b") || !c.Contains("c") {
		t.Fatal("expected b and c present")
	}
}

func TestLRULeastRecentlyUsedOrder(t *testing.T) {
	c := NewLRU[string, int](Config{})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	c.Get("a")

	want := []string{"b", "c", "a"}
	for i, k := range want {
		got, ok := c.LeastRecentlyUsed(i)
		if !ok || got != k {
			t.Fatalf("LeastRecentlyUsed(%d) = (%s, %v), want %s", i, got, ok, k)
		}
	}
	if _, ok := c.LeastRecentlyUsed(3); ok {
		t.Fatal("expected out-of-range rank to report absent")
	}
}
