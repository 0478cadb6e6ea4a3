package state

import "sync"

// Store keeps one session value per SessionID in memory.
//
// Values are copied in and out, so T should be a plain value type (no maps or
// slices shared with callers). Mutation goes through Update only.
type Store[T any] struct {
	mu       sync.RWMutex
	sessions map[SessionID]T
	init     func(SessionID) T
}

// NewStore constructs an empty Store. init builds the value stored by Create.
func NewStore[T any](init func(SessionID) T) *Store[T] {
	if init == nil {
		init = func(SessionID) T {
			var zero T
			return zero
		}
	}
	return &Store[T]{
		sessions: make(map[SessionID]T),
		init:     init,
	}
}

// Create stores a fresh session for id, replacing any existing one.
func (s *Store[T]) Create(id SessionID) T {
	fresh := s.init(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = fresh
	return fresh
}

// Get returns a copy of the session for id.
func (s *Store[T]) Get(id SessionID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Update applies fn to the stored session. It reports false when no session exists.
func (s *Store[T]) Update(id SessionID, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	if fn != nil {
		fn(&session)
	}
	s.sessions[id] = session
	return true
}

// Delete removes the session for id and reports whether one existed.
func (s *Store[T]) Delete(id SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
