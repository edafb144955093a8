package library

import (
	"fmt"
	"sync"
)

// scopeLocks serializes reorder writes per ordering scope. Two concurrent
// moves in the same playlist must not interleave; moves in different scopes
// run in parallel.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *scopeLocks) get(kind string, id int64) *sync.Mutex {
	key := fmt.Sprintf("%s:%d", kind, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}
