// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import "testing"

func TestTableInsertFindErase(t *testing.T) {
	tbl := newTable[string, int, struct{}](4)
	idx, _, had := tbl.InsertOrUpdate("a", 1, func() struct{} { return struct{}{} })
	if had {
		t.Fatal("expected new insert")
	}
	if v := tbl.Value(idx); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}

	found, ok := tbl.Find("a")
	if !ok || found != idx {
		t.Fatalf("Find failed: idx=%d ok=%v", found, ok)
	}

	_, old, had := tbl.InsertOrUpdate("a", 2, func() struct{} { return struct{}{} })
	if !had || old != 1 {
		t.Fatalf("expected update returning old=1, got had=%v old=%d", had, old)
	}

	k, v := tbl.Erase(idx)
	if k != "a" || v != 2 {
		t.Fatalf("Erase returned %v/%v", k, v)
	}
	if _, ok := tbl.Find("a"); ok {
		t.Fatal("expected key gone after Erase")
	}
}

func TestTableGrowsAndPreservesEntries(t *testing.T) {
	tbl := newTable[int, int, struct{}](4)
	for i := 0; i < 200; i++ {
		tbl.InsertOrUpdate(i, i*i, func() struct{} { return struct{}{} })
	}
	if tbl.Len() != 200 {
		t.Fatalf("Len() = %d, want 200", tbl.Len())
	}
	for i := 0; i < 200; i++ {
		idx, ok := tbl.Find(i)
		if !ok || tbl.Value(idx) != i*i {
			t.Fatalf("entry %d missing or wrong after growth", i)
		}
	}
}

func TestTableEraseThenReinsertReusesSlot(t *testing.T) {
	tbl := newTable[string, int, struct{}](4)
	tbl.InsertOrUpdate("a", 1, func() struct{} { return struct{}{} })
	idx, _ := tbl.Find("a")
	tbl.Erase(idx)
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d after erase, want 0", tbl.Len())
	}
	tbl.InsertOrUpdate("b", 2, func() struct{} { return struct{}{} })
	if idxB, ok := tbl.Find("b"); !ok || idxB != idx {
		t.Fatalf("expected b findable in a's freed slot %d, got %d (found=%v)", idx, idxB, ok)
	}
}

func TestTableReset(t *testing.T) {
	tbl := newTable[string, int, struct{}](4)
	tbl.InsertOrUpdate("a", 1, func() struct{} { return struct{}{} })
	tbl.Reset(true)
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d after Reset, want 0", tbl.Len())
	}
	if _, ok := tbl.Find("a"); ok {
		t.Fatal("expected empty table after Reset")
	}
}
