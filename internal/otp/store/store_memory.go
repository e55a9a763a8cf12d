package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

type pairKey struct {
	number  id.CardNumber
	channel models.Channel
}

// MemoryStore implements Store with a mutex-guarded map. A single lock across
// all operations gives the same linearization the postgres store gets from
// row-level atomic updates.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[pairKey]*models.Challenge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{challenges: make(map[pairKey]*models.Challenge)}
}

func (s *MemoryStore) Replace(ctx context.Context, challenge models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[pairKey{challenge.CardNumber, challenge.Channel}] = &challenge
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, number id.CardNumber, channel models.Channel) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[pairKey{number, channel}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *challenge
	return &clone, nil
}

func (s *MemoryStore) IncrementAttempts(ctx context.Context, challengeID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge := s.findByID(challengeID)
	if challenge == nil || challenge.Used || challenge.Attempts >= challenge.MaxAttempts {
		return 0, sentinel.ErrConflict
	}
	challenge.Attempts++
	return challenge.Attempts, nil
}

func (s *MemoryStore) Consume(ctx context.Context, challengeID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge := s.findByID(challengeID)
	if challenge == nil || challenge.Used || challenge.Attempts >= challenge.MaxAttempts || now.After(challenge.ExpiresAt) {
		return sentinel.ErrConflict
	}
	challenge.Used = true
	return nil
}

func (s *MemoryStore) MarkDelivered(ctx context.Context, challengeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if challenge := s.findByID(challengeID); challenge != nil {
		challenge.Delivered = true
	}
	return nil
}

func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, challenge := range s.challenges {
		if challenge.Used || now.After(challenge.ExpiresAt) {
			delete(s.challenges, key)
			removed++
		}
	}
	return removed, nil
}

// findByID is an O(n) scan; the map is keyed by pair because replace-on-issue
// is the hot path. Fine for a store sized by live challenges.
func (s *MemoryStore) findByID(challengeID uuid.UUID) *models.Challenge {
	for _, challenge := range s.challenges {
		if challenge.ID == challengeID {
			return challenge
		}
	}
	return nil
}
