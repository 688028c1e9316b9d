package stream

type keyed interface {
	Key() string
}

// sequence is one logical stream. Items pushed while no load has completed,
// or while a reload is in flight, are kept in buffered so they can be replayed
// on top of the pulled sequence without duplicating what the pull returned.
type sequence[T keyed] struct {
	gen      uint64
	loading  bool
	loaded   bool
	items    []T
	buffered []T
}

func (s *sequence[T]) state() State {
	switch {
	case s.loading:
		return Loading
	case s.loaded:
		return Loaded
	}
	return Empty
}

func (s *sequence[T]) begin(gen uint64) {
	s.gen = gen
	s.loading = true
}

func (s *sequence[T]) complete(gen uint64, items []T) bool {
	if !s.loading || gen != s.gen {
		return false
	}
	next := make([]T, len(items), len(items)+len(s.buffered))
	copy(next, items)
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it.Key()] = struct{}{}
	}
	for _, it := range s.buffered {
		if _, dup := seen[it.Key()]; dup {
			continue
		}
		seen[it.Key()] = struct{}{}
		next = append(next, it)
	}
	s.items = next
	s.buffered = nil
	s.loading = false
	s.loaded = true
	return true
}

func (s *sequence[T]) fail(gen uint64) bool {
	if !s.loading || gen != s.gen {
		return false
	}
	s.loading = false
	if s.loaded {
		s.buffered = nil
	}
	return true
}

func (s *sequence[T]) push(item T) Outcome {
	if s.loading {
		s.buffered = append(s.buffered, item)
		if s.loaded {
			s.items = append(s.items, item)
			return Appended
		}
		return Buffered
	}
	if !s.loaded {
		s.buffered = append(s.buffered, item)
		return Buffered
	}
	s.items = append(s.items, item)
	return Appended
}

func (s *sequence[T]) snapshot() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
