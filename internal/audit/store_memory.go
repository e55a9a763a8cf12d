package audit

import (
	"context"
	"sync"
)

// Store is the persistence seam for audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCard(ctx context.Context, cardNumber string) ([]Event, error)
}

// MemoryStore keeps events in memory for tests and development.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByCard(ctx context.Context, cardNumber string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.CardNumber == cardNumber {
			out = append(out, event)
		}
	}
	return out, nil
}

// All returns a snapshot of every recorded event, oldest first.
func (s *MemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
