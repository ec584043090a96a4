package render

import (
	"testing"

	"github.com/vango-dev/spanrender/pkg/html"
)

func TestSlots(t *testing.T) {
	s, err := NewSlots("async")
	if err != nil {
		t.Fatal(err)
	}

	a, b, c := html.Resolve(1), html.Resolve(2), html.Resolve(3)
	ids := []string{s.Register(a), s.Register(b), s.Register(c)}
	if ids[0] != "async1" || ids[1] != "async2" || ids[2] != "async3" {
		t.Fatalf("ids = %v", ids)
	}

	s.Settle("async2")
	if got := s.Pending(); len(got) != 2 || got[0] != "async1" || got[1] != "async3" {
		t.Errorf("Pending() = %v", got)
	}
	if got, ok := s.Lookup("async3"); !ok || got != c {
		t.Errorf("Lookup(async3) = %v, %v", got, ok)
	}
	if _, ok := s.Lookup("async2"); ok {
		t.Error("settled slot still registered")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestNewSlotsRejectsInvalidPrefix(t *testing.T) {
	for _, prefix := range []string{"", "1", "a b", `a"`} {
		if _, err := NewSlots(prefix); err == nil {
			t.Errorf("NewSlots(%q) should fail", prefix)
		}
	}
}
