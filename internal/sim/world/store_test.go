package world

import "testing"

func TestStore_RemoveOnceAndStableIteration(t *testing.T) {
	s := newStore[Mine]()
	a := s.add(Mine{X: 1})
	b := s.add(Mine{X: 2})
	c := s.add(Mine{X: 3})

	hs := s.handles()
	if len(hs) != 3 {
		t.Fatalf("handles=%v", hs)
	}

	// Removing while walking a handle snapshot must not skip later entries.
	seen := 0
	for _, h := range hs {
		if _, ok := s.get(h); !ok {
			continue
		}
		seen++
		if h == a {
			if !s.remove(b) {
				t.Fatalf("remove b")
			}
		}
	}
	if seen != 2 {
		t.Fatalf("seen=%d want 2", seen)
	}
	if s.remove(b) {
		t.Fatalf("second removal of b should fail")
	}
	if s.Len() != 2 {
		t.Fatalf("len=%d", s.Len())
	}

	s.compact()
	if len(s.entries) != 2 {
		t.Fatalf("entries after compact=%d", len(s.entries))
	}
	if m, ok := s.get(c); !ok || m.X != 3 {
		t.Fatalf("get c after compact: %+v %v", m, ok)
	}
	if d := s.add(Mine{X: 4}); d <= c {
		t.Fatalf("handles must keep increasing: %d <= %d", d, c)
	}
}

func TestStore_InsertRequiresIncreasingHandles(t *testing.T) {
	s := newStore[Marker]()
	if !s.insert(5, NewDangerMarker(0, 0)) {
		t.Fatalf("insert 5")
	}
	if s.insert(5, NewDangerMarker(0, 0)) || s.insert(3, NewDangerMarker(0, 0)) || s.insert(0, NewDangerMarker(0, 0)) {
		t.Fatalf("out of order insert accepted")
	}
	if h := s.add(NewDangerMarker(1, 1)); h != 6 {
		t.Fatalf("next handle=%d want 6", h)
	}
}
