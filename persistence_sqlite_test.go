// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	src := NewLRU[string, int](Config{MaxSize: 10})
	src.Insert("a", 1)
	src.Insert("b", 2)
	src.Insert("c", 3)

	if err := SaveToSQLite[string, int](src, path, "users", 1000); err != nil {
		t.Fatalf("SaveToSQLite: %v", err)
	}

	dst := NewLRU[string, int](Config{MaxSize: 10})
	if err := LoadFromSQLite[string, int](dst, path, "users"); err != nil {
		t.Fatalf("LoadFromSQLite: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if !dst.Contains(k) {
			t.Fatalf("expected %s present after LoadFromSQLite", k)
		}
	}
	if dst.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", dst.Len())
	}
}

func TestSaveToSQLiteUpsertsOnRepeatedName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	src := NewLRU[string, int](Config{MaxSize: 10})
	src.Insert("a", 1)
	if err := SaveToSQLite[string, int](src, path, "users", 1000); err != nil {
		t.Fatalf("first SaveToSQLite: %v", err)
	}

	src.Insert("b", 2)
	if err := SaveToSQLite[string, int](src, path, "users", 2000); err != nil {
		t.Fatalf("second SaveToSQLite: %v", err)
	}

	dst := NewLRU[string, int](Config{MaxSize: 10})
	if err := LoadFromSQLite[string, int](dst, path, "users"); err != nil {
		t.Fatalf("LoadFromSQLite: %v", err)
	}
	if !dst.Contains("a") || !dst.Contains("b") {
		t.Fatal("expected upserted snapshot to carry both entries")
	}
}

func TestSaveToSQLiteSeparatesNamedSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	users := NewLRU[string, int](Config{MaxSize: 10})
	users.Insert("alice", 1)
	if err := SaveToSQLite[string, int](users, path, "users", 1000); err != nil {
		t.Fatalf("SaveToSQLite(users): %v", err)
	}

	sessions := NewFIFO[string, int](Config{MaxSize: 10})
	sessions.Insert("token", 99)
	if err := SaveToSQLite[string, int](sessions, path, "sessions", 1000); err != nil {
		t.Fatalf("SaveToSQLite(sessions): %v", err)
	}

	dst := NewFIFO[string, int](Config{MaxSize: 10})
	if err := LoadFromSQLite[string, int](dst, path, "sessions"); err != nil {
		t.Fatalf("LoadFromSQLite(sessions): %v", err)
	}
	if !dst.Contains("token") || dst.Contains("alice") {
		t.Fatal("expected sessions snapshot isolated from users snapshot")
	}
}

func TestLoadFromSQLiteRejectsMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	src := NewLRU[string, int](Config{MaxSize: 10})
	src.Insert("a", 1)
	if err := SaveToSQLite[string, int](src, path, "users", 1000); err != nil {
		t.Fatalf("SaveToSQLite: %v", err)
	}

	dst := NewLRU[string, int](Config{MaxSize: 10})
	if err := LoadFromSQLite[string, int](dst, path, "missing"); !IsSerializationError(err) {
		t.Fatalf("expected SerializationError, got %v", err)
	}
}

func TestLoadFromSQLiteRejectsPolicyMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	src := NewLRU[string, int](Config{MaxSize: 10})
	src.Insert("a", 1)
	if err := SaveToSQLite[string, int](src, path, "users", 1000); err != nil {
		t.Fatalf("SaveToSQLite: %v", err)
	}

	dst := NewFIFO[string, int](Config{MaxSize: 10})
	if err := LoadFromSQLite[string, int](dst, path, "users"); !IsSerializationError(err) {
		t.Fatalf("expected SerializationError, got %v", err)
	}
}
