package store

import (
	"context"
	"sync"

	"github.com/Coritp27/sysga-sub002/internal/card/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

// MemoryStore is an in-memory card store for tests and development. Seed it
// through the Put* methods before handing it to the core; the Store interface
// itself stays read-only.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[id.CardNumber]*models.CardRecord
	references map[id.CardID]*models.CardReference
	contacts   map[id.CardNumber]*models.Contact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[id.CardNumber]*models.CardRecord),
		references: make(map[id.CardID]*models.CardReference),
		contacts:   make(map[id.CardNumber]*models.Contact),
	}
}

func (s *MemoryStore) FindByNumber(ctx context.Context, number id.CardNumber) (*models.CardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *MemoryStore) FindReference(ctx context.Context, cardID id.CardID) (*models.CardReference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.references[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *ref
	return &clone, nil
}

func (s *MemoryStore) FindReferenceByNumber(ctx context.Context, number id.CardNumber) (*models.CardReference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	ref, ok := s.references[record.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *ref
	return &clone, nil
}

func (s *MemoryStore) FindContact(ctx context.Context, number id.CardNumber) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *contact
	return &clone, nil
}

// PutRecord seeds a card record.
func (s *MemoryStore) PutRecord(record models.CardRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Number] = &record
}

// PutReference seeds an on-chain anchoring.
func (s *MemoryStore) PutReference(ref models.CardReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.references[ref.CardID] = &ref
}

// PutContact seeds delivery addresses.
func (s *MemoryStore) PutContact(contact models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[contact.CardNumber] = &contact
}
