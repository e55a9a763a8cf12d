package store

import (
	"context"

	"github.com/Coritp27/sysga-sub002/internal/card/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// Store is the read-only view of the issuer's card database granted to the
// verification core. All writes happen in issuer operations outside this
// module; stores here never expose mutation.
type Store interface {
	// FindByNumber returns the card record, or sentinel.ErrNotFound.
	FindByNumber(ctx context.Context, number id.CardNumber) (*models.CardRecord, error)
	// FindReference returns the on-chain anchoring for a card, or
	// sentinel.ErrNotFound when the card is unanchored.
	FindReference(ctx context.Context, cardID id.CardID) (*models.CardReference, error)
	// FindReferenceByNumber resolves the anchoring directly from the card
	// number, so record and reference can be loaded in parallel.
	FindReferenceByNumber(ctx context.Context, number id.CardNumber) (*models.CardReference, error)
	// FindContact returns the registered delivery addresses for a card, or
	// sentinel.ErrNotFound when none are registered.
	FindContact(ctx context.Context, number id.CardNumber) (*models.Contact, error)
}
