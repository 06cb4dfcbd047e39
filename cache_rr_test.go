// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestRREvictsOnOverflowKeepingSize(t *testing.T) {
	c := NewRR[string, int](Config{MaxSize: 3})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	c.Insert("d", 4)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
}

func TestRRRandomKeyAndPopItem(t *testing.T) {
	c := NewRR[string, int](Config{})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)

	if _, ok := c.RandomKey(); !ok {
		t.Fatal("expected a random key")
	}
	if n := c.Drain(10); n != 3 {
		t.Fatalf("Drain = %d, want 3", n)
	}
	if _, ok := c.RandomKey(); ok {
		t.Fatal("expected no key after drain")
	}
}
