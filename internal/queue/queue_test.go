package queue

import (
	"sort"
	"testing"
)

func threeTracks() []Track {
	return []Track{
		{ID: "t0", Title: "Zero"},
		{ID: "t1", Title: "One"},
		{ID: "t2", Title: "Two"},
	}
}

func TestNew(t *testing.T) {
	q := New()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if !q.IsEmpty() {
		t.Error("IsEmpty() = false for new queue")
	}
	if q.AtPosition(0) != nil {
		t.Error("AtPosition(0) should be nil for empty queue")
	}
	if q.Position("t0") != -1 {
		t.Errorf("Position() = %d, want -1", q.Position("t0"))
	}
}

func TestQueue_Replace(t *testing.T) {
	q := New()
	q.Replace(Track{ID: "old"})

	q.Replace(threeTracks()...)

	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if q.Position("old") != -1 {
		t.Error("old track still present after Replace")
	}
	if got := q.AtPosition(0); got == nil || got.ID != "t0" {
		t.Errorf("AtPosition(0) = %v, want t0", got)
	}
}

func TestQueue_AppendSkipsDuplicates(t *testing.T) {
	q := New()
	q.Replace(threeTracks()...)

	q.Append(Track{ID: "t1", Title: "dup"}, Track{ID: "t3", Title: "Three"})

	if q.Len() != 4 {
		t.Errorf("Len() = %d, want 4", q.Len())
	}
	if got := q.AtPosition(3); got == nil || got.ID != "t3" {
		t.Errorf("AtPosition(3) = %v, want t3", got)
	}
	// Original t1 untouched
	if got := q.AtPosition(1); got == nil || got.Title != "One" {
		t.Errorf("AtPosition(1) = %v, want original One", got)
	}
}

func TestQueue_Position(t *testing.T) {
	q := New()
	q.Replace(threeTracks()...)

	tests := []struct {
		id   string
		want int
	}{
		{"t0", 0},
		{"t1", 1},
		{"t2", 2},
		{"missing", -1},
	}

	for _, tt := range tests {
		if got := q.Position(tt.id); got != tt.want {
			t.Errorf("Position(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestQueue_ShufflePreservesSet(t *testing.T) {
	q := New()
	tracks := make([]Track, 20)
	for i := range tracks {
		tracks[i] = Track{ID: string(rune('a' + i))}
	}
	q.Replace(tracks...)

	q.SetShuffle(true)

	if !q.Shuffled() {
		t.Error("Shuffled() = false after SetShuffle(true)")
	}

	got := q.InOrder()
	if len(got) != len(tracks) {
		t.Fatalf("InOrder() len = %d, want %d", len(got), len(tracks))
	}

	ids := make([]string, len(got))
	for i, tr := range got {
		ids[i] = tr.ID
	}
	sort.Strings(ids)
	for i, tr := range tracks {
		if ids[i] != tr.ID {
			t.Fatalf("shuffle lost or duplicated ids: %v", ids)
		}
	}

	// Every track still addressable by position
	for _, tr := range tracks {
		pos := q.Position(tr.ID)
		if pos < 0 {
			t.Fatalf("Position(%q) = -1 after shuffle", tr.ID)
		}
		if at := q.AtPosition(pos); at == nil || at.ID != tr.ID {
			t.Fatalf("AtPosition(Position(%q)) = %v", tr.ID, at)
		}
	}
}

func TestQueue_UnshuffleRestoresOrder(t *testing.T) {
	q := New()
	q.Replace(threeTracks()...)
	q.SetShuffle(true)

	q.SetShuffle(false)

	if q.Shuffled() {
		t.Error("Shuffled() = true after SetShuffle(false)")
	}
	got := q.InOrder()
	for i, want := range []string{"t0", "t1", "t2"} {
		if got[i].ID != want {
			t.Errorf("InOrder()[%d] = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestQueue_CanonicalTracksUnaffectedByShuffle(t *testing.T) {
	q := New()
	q.Replace(threeTracks()...)
	q.SetShuffle(true)

	got := q.Tracks()
	for i, want := range []string{"t0", "t1", "t2"} {
		if got[i].ID != want {
			t.Errorf("Tracks()[%d] = %q, want %q (canonical order must survive shuffle)", i, got[i].ID, want)
		}
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New()
	q.Replace(threeTracks()...)

	q.Clear()

	if !q.IsEmpty() {
		t.Error("IsEmpty() = false after Clear")
	}
	if q.Position("t0") != -1 {
		t.Error("Position found track after Clear")
	}
}
