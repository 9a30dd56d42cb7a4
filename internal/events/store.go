package events

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent events in process.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryStore retains at most limit events; limit < 1 means 500.
func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		limit = 500
	}
	return &MemoryStore{limit: limit}
}

// Append implements EventStore.
func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if over := len(s.events) - s.limit; over > 0 {
		s.events = append([]Event(nil), s.events[over:]...)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (s *MemoryStore) Recent(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out
}
