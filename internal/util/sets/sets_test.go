package sets

import "testing"

func TestBasicOperations(t *testing.T) {
	s := New("a", "b")
	s.Add("c")
	if !s.Has("b") || !s.Has("c") {
		t.Fatalf("expected members present, got %v", s)
	}
	s.Delete("b")
	if s.Has("b") {
		t.Fatal("expected b removed")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", s.Len())
	}
}

func TestDiff(t *testing.T) {
	a := New("x", "y", "z")
	b := New("y")
	d := a.Diff(b)
	if d.Len() != 2 || !d.Has("x") || !d.Has("z") || d.Has("y") {
		t.Fatalf("unexpected diff: %v", d)
	}
}

func TestSortedStrings(t *testing.T) {
	s := New("c", "a", "b")
	got := SortedStrings(s)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
