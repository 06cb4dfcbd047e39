// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestSaveLoadRoundTrip(t *testing.T) {
	src := NewLRU[string, int](Config{MaxSize: 10})
	src.Insert("a", 1)
	src.Insert("b", 2)
	src.Insert("c", 3)

	data, err := Save[string, int](src)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := NewLRU[string, int](Config{MaxSize: 10})
	if err := Load[string, int](dst, data); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if !dst.Contains(k) {
			t.Fatalf("expected %s present after Load", k)
		}
	}
	if dst.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", dst.Len())
	}

	equal, err := Equal[string, int](src, dst, nil)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if !equal {
		t.Fatal("expected load(save(src)) to equal src")
	}
}

func TestEqualDetectsDifference(t *testing.T) {
	a := NewLRU[string, int](Config{MaxSize: 10})
	a.Insert("a", 1)
	a.Insert("b", 2)

	b := NewLRU[string, int](Config{MaxSize: 10})
	b.Insert("a", 1)
	b.Insert("b", 99)

	equal, err := Equal[string, int](a, b, nil)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if equal {
		t.Fatal("expected caches with differing values to compare unequal")
	}

	c := NewLRU[string, int](Config{MaxSize: 10})
	c.Insert("a", 1)
	if equal, err := Equal[string, int](a, c, nil); err != nil || equal {
		t.Fatalf("expected caches of differing size to compare unequal, got equal=%v err=%v", equal, err)
	}
}

func TestEqualPropagatesUserPanic(t *testing.T) {
	a := NewLRU[string, int](Config{MaxSize: 10})
	a.Insert("a", 1)
	b := NewLRU[string, int](Config{MaxSize: 10})
	b.Insert("a", 1)

	_, err := Equal[string, int](a, b, func(x, y int) bool {
		panic("user equality exploded")
	})
	if !IsUserException(err) {
		t.Fatalf("expected UserException, got %v", err)
	}
}

func TestLoadRejectsPolicyMismatch(t *testing.T) {
	src := NewLRU[string, int](Config{MaxSize: 10})
	src.Insert("a", 1)
	data, _ := Save[string, int](src)

	dst := NewFIFO[string, int](Config{MaxSize: 10})
	if err := Load[string, int](dst, data); !IsSerializationError(err) {
		t.Fatalf("expected SerializationError, got %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	dst := NewLRU[string, int](Config{MaxSize: 10})
	if err := Load[string, int](dst, []byte("not a snapshot")); !IsSerializationError(err) {
		t.Fatalf("expected SerializationError, got %v", err)
	}
}
