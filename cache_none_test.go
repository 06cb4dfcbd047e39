// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestNoneCacheOverflow(t *testing.T) {
	c := NewNone[string, int](Config{MaxSize: 2})
	if _, _, err := c.Insert("a", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := c.Insert("b", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := c.Insert("c", 3); !IsOverflow(err) {
		t.Fatalf("expected Overflow, got %v", err)
	}
	// updating an existing key never overflows.
	if _, _, err := c.Insert("a", 10); err != nil {
		t.Fatalf("update should not overflow: %v", err)
	}
}

func TestNoneCacheGetDeletePop(t *testing.T) {
	c := NewNone[string, int](Config{})
	c.Insert("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get = %d, %v", v, ok)
	}
	if err := c.Delete("missing"); !IsKeyNotFound(err) {
		t.Fatalf("expected KeyNotFound, got %v", err)
	}
	if v, ok := c.Pop("a"); !ok || v != 1 {
		t.Fatalf("Pop = %d, %v", v, ok)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestNoneCacheIterateDetectsMutation(t *testing.T) {
	c := NewNone[string, int](Config{})
	c.Insert("a", 1)
	it := c.Iterate()
	c.Insert("b", 2)
	if _, _, err := it.Next(); !IsConcurrentModification(err) {
		t.Fatalf("expected ConcurrentModification, got %v", err)
	}
}
