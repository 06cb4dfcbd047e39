// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"testing"
	"time"
)

func TestVTTLPerKeyExpiry(t *testing.T) {
	clock := &fakeClock{}
	c := NewVTTL[string, int](Config{TimeProvider: clock})
	c.InsertWithTTL("short", 1, 5*time.Second)
	c.InsertWithTTL("long", 2, time.Hour)
	c.Insert("forever", 3) // no expiry

	clock.advance(10 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expected short expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Fatal("expected long still live")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Fatal("expected forever still live")
	}
}

func TestVTTLEvictsEarliestDeadlineFirst(t *testing.T) {
	clock := &fakeClock{}
	c := NewVTTL[string, int](Config{TimeProvider: clock, MaxSize: 2})
	c.InsertWithTTL("soon", 1, 5*time.Second)
	c.InsertWithTTL("later", 2, time.Hour)
	c.Insert("third", 3) // forces eviction of earliest deadline: "soon"

	if c.Contains("soon") {
		t.Fatal("expected soon evicted first (earliest finite deadline)")
	}
	if !c.Contains("later") || !c.Contains("third") {
		t.Fatal("expected later and third present")
	}
}

func TestVTTLPopItemPrefersNeverExpiringWhenNoDeadlines(t *testing.T) {
	clock := &fakeClock{}
	c := NewVTTL[string, int](Config{TimeProvider: clock})
	c.Insert("a", 1)
	c.Insert("b", 2)

	k, _, err := c.PopItem()
	if err != nil || k != "a" {
		t.Fatalf("PopItem = %v, %v", k, err)
	}
}

func TestVTTLPopWithExpire(t *testing.T) {
	clock := &fakeClock{}
	c := NewVTTL[string, int](Config{TimeProvider: clock})
	c.InsertWithTTL("a", 1, time.Minute)
	c.Insert("forever", 2)

	clock.advance(10 * time.Second)
	v, remaining, ok := c.PopWithExpire("a")
	if !ok || v != 1 {
		t.Fatalf("PopWithExpire = %v, %v, %v", v, remaining, ok)
	}
	if remaining != 50*time.Second {
		t.Fatalf("remaining = %v, want 50s", remaining)
	}
	if c.Contains("a") {
		t.Fatal("expected a removed")
	}

	v, remaining, ok = c.PopWithExpire("forever")
	if !ok || v != 2 || remaining != 0 {
		t.Fatalf("PopWithExpire(forever) = %v, %v, %v", v, remaining, ok)
	}

	if _, _, ok := c.PopWithExpire("missing"); ok {
		t.Fatal("expected missing key to report absent")
	}
}

func TestVTTLPopItemWithExpire(t *testing.T) {
	clock := &fakeClock{}
	c := NewVTTL[string, int](Config{TimeProvider: clock})
	c.InsertWithTTL("soon", 1, 5*time.Second)
	c.InsertWithTTL("later", 2, time.Hour)

	k, v, remaining, err := c.PopItemWithExpire()
	if err != nil || k != "soon" || v != 1 {
		t.Fatalf("PopItemWithExpire = %v, %v, %v, %v", k, v, remaining, err)
	}
	if remaining != 5*time.Second {
		t.Fatalf("remaining = %v, want 5s", remaining)
	}

	empty := NewVTTL[string, int](Config{TimeProvider: clock})
	if _, _, _, err := empty.PopItemWithExpire(); !IsKeyNotFound(err) {
		t.Fatalf("expected KeyNotFound on empty cache, got %v", err)
	}
}

func TestVTTLItemsWithExpire(t *testing.T) {
	clock := &fakeClock{}
	c := NewVTTL[string, int](Config{TimeProvider: clock})
	c.InsertWithTTL("a", 1, time.Minute)
	c.Insert("b", 2)

	items := c.ItemsWithExpire()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	for _, p := range items {
		if p.Key == "a" && !p.HasExpiry {
			t.Fatal("expected a to carry an expiry")
		}
		if p.Key == "b" && p.HasExpiry {
			t.Fatal("expected b to never expire")
		}
	}
}
