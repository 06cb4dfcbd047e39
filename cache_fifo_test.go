// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestFIFOEvictsOldestOnOverflow(t *testing.T) {
	c := NewFIFO[string, int](Config{MaxSize: 3})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	c.Insert("d", 4) // should evict "a"

	if c.Contains("a") {
		t.Fatal("expected a evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if !c.Contains(k) {
			t.Fatalf("expected %s present", k)
		}
	}
}

func TestFIFOUpdateKeepsPosition(t *testing.T) {
	c := NewFIFO[string, int](Config{MaxSize: 2})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("a", 10) // update, position unchanged
	c.Insert("c", 3)  // should evict "a" still (oldest by insertion order)

	if c.Contains("a") {
		t.Fatal("expected a evicted despite update")
	}
	if !c.Contains("b") || !c.Contains("c") {
		t.Fatal("expected b and c present")
	}
}

func TestFIFOPopItemAndDrain(t *testing.T) {
	c := NewFIFO[string, int](Config{})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)

	k, v, err := c.PopItem()
	if err != nil || k != "a" || v != 1 {
		t.Fatalf("PopItem = %v, %v, %v", k, v, err)
	}
	if n := c.Drain(10); n != 2 {
		t.Fatalf("Drain = %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestFIFOOnEvictCallback(t *testing.T) {
	var evicted []string
	c := NewFIFO[string, int](Config{MaxSize: 1, OnEvict: func(key, value interface{}) {
		evicted = append(evicted, key.(string))
	}})
	c.Insert("a", 1)
	c.Insert("b", 2)
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Fatalf("evicted = %v", evicted)
	}
}
