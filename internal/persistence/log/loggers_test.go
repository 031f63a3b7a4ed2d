package log

import (
	"testing"
	"time"
)

func TestEditJournal_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	j := NewEditJournal(dir)

	at := time.Date(2026, 8, 30, 12, 4, 5, 0, time.UTC)
	entries := []EditEntry{
		{
			At: at, SessionID: "S1", EditID: "E1", Op: "set_block",
			Pos: [3]int{1, 0, -2}, BlockID: "LANTERN",
			Props: map[string]string{"facing": "north"}, Changed: true,
		},
		{
			At: at.Add(time.Minute), SessionID: "S1", EditID: "E2", Op: "set_block",
			Pos: [3]int{1, 0, -2}, BlockID: "AIR", Changed: true,
		},
	}
	for _, e := range entries {
		if err := j.Write(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].EditID != entries[i].EditID || got[i].BlockID != entries[i].BlockID {
			t.Fatalf("entry %d mismatch: %+v vs %+v", i, got[i], entries[i])
		}
	}
	if got[0].Props["facing"] != "north" {
		t.Fatalf("props lost: %+v", got[0])
	}
}

func TestEditJournal_RotatesAcrossHours(t *testing.T) {
	dir := t.TempDir()
	j := NewEditJournal(dir)

	a := time.Date(2026, 8, 30, 10, 59, 0, 0, time.UTC)
	b := a.Add(2 * time.Minute) // crosses into the 11h file
	if err := j.Write(EditEntry{At: a, EditID: "E1", Op: "set_block"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := j.Write(EditEntry{At: b, EditID: "E2", Op: "set_block"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d entries, want 2 across rotated files", len(got))
	}
	if got[0].EditID != "E1" || got[1].EditID != "E2" {
		t.Fatalf("order lost: %+v", got)
	}
}

func TestReadAll_EmptyDir(t *testing.T) {
	got, err := ReadAll(t.TempDir())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}
