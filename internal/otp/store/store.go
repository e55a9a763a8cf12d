package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// Store persists OTP challenges, one row per (cardNumber, channel) pair.
// All mutation is row-level and atomic: a verify racing a re-issue either sees
// the old challenge consistently or observes it already superseded, never a
// torn state. Stores are pure I/O; expiry and lock decisions belong to the
// service.
type Store interface {
	// Replace atomically installs a new challenge for its (cardNumber, channel)
	// pair, superseding any prior challenge for that pair regardless of state.
	Replace(ctx context.Context, challenge models.Challenge) error

	// Find returns the current challenge for the pair, in whatever state, or
	// sentinel.ErrNotFound. The returned row may be used, locked, or expired;
	// classification is the caller's job.
	Find(ctx context.Context, number id.CardNumber, channel models.Channel) (*models.Challenge, error)

	// IncrementAttempts adds one failed attempt to the identified challenge,
	// guarded so attempts never exceed maxAttempts and never move on a used
	// row. Returns the post-increment attempt count. Returns
	// sentinel.ErrConflict when the row was superseded or consumed
	// concurrently.
	IncrementAttempts(ctx context.Context, challengeID uuid.UUID) (int, error)

	// Consume marks the identified challenge used, succeeding exactly once:
	// the guard requires not-used, attempts below budget, and not yet expired
	// at now. Returns sentinel.ErrConflict when the guard fails.
	Consume(ctx context.Context, challengeID uuid.UUID, now time.Time) error

	// MarkDelivered records that the challenge message reached a channel.
	MarkDelivered(ctx context.Context, challengeID uuid.UUID) error

	// Sweep removes challenges that are used or expired at now, returning the
	// number removed. Idempotent and safe to run concurrently with
	// issue/verify.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
