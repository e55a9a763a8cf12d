package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

func newChallenge(t *testing.T, number string, channel models.Channel, issuedAt time.Time) models.Challenge {
	t.Helper()
	parsed, err := id.ParseCardNumber(number)
	require.NoError(t, err)
	return models.Challenge{
		ID:          uuid.New(),
		CardNumber:  parsed,
		Channel:     channel,
		CodeHash:    "hash",
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(5 * time.Minute),
		MaxAttempts: 3,
	}
}

func TestReplaceSupersedes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := newChallenge(t, "CARD123456", models.ChannelSMS, now)
	require.NoError(t, s.Replace(ctx, first))

	second := newChallenge(t, "CARD123456", models.ChannelSMS, now.Add(time.Minute))
	require.NoError(t, s.Replace(ctx, second))

	found, err := s.Find(ctx, first.CardNumber, models.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID, "the pair holds exactly one challenge")

	// Operations addressed to the superseded challenge id fail closed.
	_, err = s.IncrementAttempts(ctx, first.ID)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.ErrorIs(t, s.Consume(ctx, first.ID, now), sentinel.ErrConflict)
}

func TestChannelsAreIndependentPairs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	smsChallenge := newChallenge(t, "CARD123456", models.ChannelSMS, now)
	emailChallenge := newChallenge(t, "CARD123456", models.ChannelEmail, now)
	require.NoError(t, s.Replace(ctx, smsChallenge))
	require.NoError(t, s.Replace(ctx, emailChallenge))

	found, err := s.Find(ctx, smsChallenge.CardNumber, models.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, smsChallenge.ID, found.ID)
}

func TestIncrementAttemptsStopsAtMax(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	challenge := newChallenge(t, "CARD123456", models.ChannelSMS, time.Now())
	require.NoError(t, s.Replace(ctx, challenge))

	for want := 1; want <= challenge.MaxAttempts; want++ {
		attempts, err := s.IncrementAttempts(ctx, challenge.ID)
		require.NoError(t, err)
		assert.Equal(t, want, attempts)
	}

	_, err := s.IncrementAttempts(ctx, challenge.ID)
	assert.ErrorIs(t, err, sentinel.ErrConflict, "attempts never exceed max_attempts")
}

func TestConsumeGuards(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	challenge := newChallenge(t, "CARD123456", models.ChannelSMS, now)
	require.NoError(t, s.Replace(ctx, challenge))

	require.NoError(t, s.Consume(ctx, challenge.ID, now))
	assert.ErrorIs(t, s.Consume(ctx, challenge.ID, now), sentinel.ErrConflict, "consume is once only")

	expired := newChallenge(t, "CARD654321", models.ChannelSMS, now)
	require.NoError(t, s.Replace(ctx, expired))
	assert.ErrorIs(t, s.Consume(ctx, expired.ID, now.Add(6*time.Minute)), sentinel.ErrConflict)
}

func TestSweepRemovesUsedAndExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	used := newChallenge(t, "CARD111111", models.ChannelSMS, now)
	require.NoError(t, s.Replace(ctx, used))
	require.NoError(t, s.Consume(ctx, used.ID, now))

	stale := newChallenge(t, "CARD222222", models.ChannelSMS, now.Add(-10*time.Minute))
	require.NoError(t, s.Replace(ctx, stale))

	live := newChallenge(t, "CARD333333", models.ChannelSMS, now)
	require.NoError(t, s.Replace(ctx, live))

	removed, err := s.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.Find(ctx, live.CardNumber, models.ChannelSMS)
	assert.NoError(t, err, "live challenges survive the sweep")
}
