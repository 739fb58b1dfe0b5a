package world

import "sort"

// Handle identifies a mine or marker for its whole lifetime. Handles increase monotonically.
type Handle uint64

type storeEntry[T any] struct {
	h       Handle
	v       T
	removed bool
}

// store is an index-stable collection: removal flips a flag and entries are
// only dropped by compact, which the world runs between ticks.
type store[T any] struct {
	entries []storeEntry[T]
	next    Handle
	live    int
}

func newStore[T any]() *store[T] { return &store[T]{} }

func (s *store[T]) add(v T) Handle {
	s.next++
	s.entries = append(s.entries, storeEntry[T]{h: s.next, v: v})
	s.live++
	return s.next
}

// insert restores an entry with a known handle. Handles must be inserted in increasing order.
func (s *store[T]) insert(h Handle, v T) bool {
	if h == 0 || (len(s.entries) > 0 && h <= s.entries[len(s.entries)-1].h) {
		return false
	}
	s.entries = append(s.entries, storeEntry[T]{h: h, v: v})
	s.live++
	if h > s.next {
		s.next = h
	}
	return true
}

func (s *store[T]) find(h Handle) int {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].h >= h })
	if i < len(s.entries) && s.entries[i].h == h {
		return i
	}
	return -1
}

// remove reports whether h was live. A handle can be removed only once.
func (s *store[T]) remove(h Handle) bool {
	i := s.find(h)
	if i < 0 || s.entries[i].removed {
		return false
	}
	s.entries[i].removed = true
	s.live--
	return true
}

func (s *store[T]) get(h Handle) (T, bool) {
	i := s.find(h)
	if i < 0 || s.entries[i].removed {
		var zero T
		return zero, false
	}
	return s.entries[i].v, true
}

// handles returns the live handles at call time, in insertion order.
func (s *store[T]) handles() []Handle {
	out := make([]Handle, 0, s.live)
	for _, e := range s.entries {
		if !e.removed {
			out = append(out, e.h)
		}
	}
	return out
}

func (s *store[T]) each(fn func(Handle, T)) {
	for _, e := range s.entries {
		if !e.removed {
			fn(e.h, e.v)
		}
	}
}

func (s *store[T]) Len() int { return s.live }

func (s *store[T]) compact() {
	if s.live == len(s.entries) {
		return
	}
	j := 0
	for _, e := range s.entries {
		if e.removed {
			continue
		}
		s.entries[j] = e
		j++
	}
	clear(s.entries[j:])
	s.entries = s.entries[:j]
}
