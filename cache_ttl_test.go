// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"testing"
	"time"
)

// fakeClock is a manually-advanced TimeProvider for deterministic expiry tests.
type fakeClock struct{ nanos int64 }

func (f *fakeClock) Now() int64    { return f.nanos }
func (f *fakeClock) advance(d time.Duration) { f.nanos += d.Nanoseconds() }

func TestTTLRejectsNonPositiveTTL(t *testing.T) {
	if _, err := NewTTL[string, int](Config{TTL: 0}); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestTTLExpiresEntries(t *testing.T) {
	clock := &fakeClock{}
	c, err := NewTTL[string, int](Config{TTL: 10 * time.Second, TimeProvider: clock})
	if err != nil {
		t.Fatalf("NewTTL: %v", err)
	}
	c.Insert("a", 1)
	clock.advance(5 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a still live at 5s")
	}
	clock.advance(6 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a expired at 11s")
	}
}

func TestTTLExpireSweepDispatchesOnExpire(t *testing.T) {
	clock := &fakeClock{}
	var expired []string
	c, _ := NewTTL[string, int](Config{
		TTL:          1 * time.Second,
		TimeProvider: clock,
		OnExpire: func(key, value interface{}) {
			expired = append(expired, key.(string))
		},
	})
	c.Insert("a", 1)
	clock.advance(2 * time.Second)
	n := c.Expire(false)
	if n != 1 || len(expired) != 1 || expired[0] != "a" {
		t.Fatalf("n=%d expired=%v", n, expired)
	}
}

func TestTTLCapacityEvictionIsInsertionOrder(t *testing.T) {
	clock := &fakeClock{}
	c, _ := NewTTL[string, int](Config{TTL: time.Hour, MaxSize: 2, TimeProvider: clock})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	if c.Contains("a") {
		t.Fatal("expected a evicted for capacity")
	}
}
