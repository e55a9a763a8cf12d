package store

import (
	"context"
	"time"

	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// Store persists verification sessions. Update is compare-and-swap on the
// session's state so two concurrent submissions can never both advance the
// same session.
type Store interface {
	// Create persists a new session, or sentinel.ErrConflict when the id is
	// already taken.
	Create(ctx context.Context, session models.Session) error
	// Find returns the session, or sentinel.ErrNotFound.
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	// Update persists the session only if its stored state still equals
	// expected; otherwise sentinel.ErrConflict.
	Update(ctx context.Context, session models.Session, expected models.State) error
	// DeleteExpired removes sessions whose lifetime has run out and returns
	// how many were removed. Stores with native TTL may always return zero.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
