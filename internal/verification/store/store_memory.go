package store

import (
	"context"
	"sync"
	"time"

	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[id.SessionID]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *MemoryStore) Create(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = &session
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *session
	return &clone, nil
}

func (s *MemoryStore) Update(ctx context.Context, session models.Session, expected models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[session.ID]
	if !ok || current.State != expected {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = &session
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sessionID, session := range s.sessions {
		if session.ExpiredAt(now) {
			delete(s.sessions, sessionID)
			removed++
		}
	}
	return removed, nil
}
