// Package session tracks the opaque continuation token returned by the
// CLI. One request mutates the store at a time; the mutex guards readers
// racing with an in-flight request.
package session

import "sync"

// Store holds the current session id. The zero value is ready to use.
type Store struct {
	mu sync.Mutex
	id string
}

// Update records a fresher session id. Empty ids are ignored so a result
// event without an id never clears an established session.
func (s *Store) Update(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = id
}

// Current returns the most recent session id, or "" if none was seen.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id
}
