package schema

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Store publishes snapshots of a live model. Readers get the current
// snapshot without locking; writers are serialized and each published
// snapshot carries the next generation number.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[Snapshot]
}

// NewStore returns a store publishing s as generation 1.
func NewStore(s *Snapshot) *Store {
	st := &Store{}
	st.cur.Store(withGeneration(s, 1))
	return st
}

// Load returns the current snapshot.
func (s *Store) Load() *Snapshot {
	return s.cur.Load()
}

// Update derives a new snapshot from the current one and publishes it.
// The snapshot returned by fn must not be shared with other goroutines
// before Update returns.
func (s *Store) Update(fn func(*Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, errors.New("schema: update returned a nil snapshot")
	}
	var gen uint64 = 1
	if cur != nil {
		gen = cur.generation + 1
	}
	next = withGeneration(next, gen)
	s.cur.Store(next)
	return next, nil
}

func withGeneration(s *Snapshot, gen uint64) *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.generation = gen
	return &c
}
