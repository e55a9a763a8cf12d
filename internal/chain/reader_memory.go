package chain

import (
	"context"
	"sync"

	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

// MemoryReader is an in-memory Reader for tests and development.
type MemoryReader struct {
	mu    sync.RWMutex
	cards map[uint64]*OnChainCard
	// Err, when set, is returned by every GetCard to simulate an unreachable
	// gateway.
	Err error
}

func NewMemoryReader() *MemoryReader {
	return &MemoryReader{cards: make(map[uint64]*OnChainCard)}
}

func (r *MemoryReader) GetCard(ctx context.Context, onChainID uint64) (*OnChainCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	card, ok := r.cards[onChainID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *card
	return &clone, nil
}

// Put seeds an on-chain card snapshot.
func (r *MemoryReader) Put(card OnChainCard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.ID] = &card
}
