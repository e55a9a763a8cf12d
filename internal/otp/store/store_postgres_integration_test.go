//go:build integration

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
	"github.com/Coritp27/sysga-sub002/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := &PostgresStoreSuite{pg: containers.NewPostgresContainer(t)}
	suite.Run(t, s)
}

func (s *PostgresStoreSuite) SetupTest() {
	require.NoError(s.T(), s.pg.TruncateTables(context.Background(), "otp_challenges", "insurance_cards"))
	s.store = NewPostgres(s.pg.DB)
	s.seedCard("CARD12345")
}

// The otp_challenges card_number column has no FK, but seed a card anyway so
// the dataset resembles production.
func (s *PostgresStoreSuite) seedCard(number string) {
	_, err := s.pg.DB.ExecContext(context.Background(), `
		INSERT INTO insurance_cards (id, card_number, status, issued_on, last_modified)
		VALUES ($1, $2, 'ACTIVE', NOW(), NOW())
	`, uuid.New(), number)
	require.NoError(s.T(), err)
}

func (s *PostgresStoreSuite) newChallenge(number string, channel models.Channel, now time.Time) models.Challenge {
	return models.Challenge{
		ID:          uuid.New(),
		CardNumber:  id.CardNumber(number),
		Channel:     channel,
		CodeHash:    "deadbeef",
		IssuedAt:    now,
		ExpiresAt:   now.Add(5 * time.Minute),
		MaxAttempts: 3,
	}
}

func (s *PostgresStoreSuite) TestReplaceSupersedesPriorChallenge() {
	ctx := context.Background()
	now := time.Now().UTC()

	first := s.newChallenge("CARD12345", models.ChannelSMS, now)
	require.NoError(s.T(), s.store.Replace(ctx, first))

	second := s.newChallenge("CARD12345", models.ChannelSMS, now.Add(time.Second))
	require.NoError(s.T(), s.store.Replace(ctx, second))

	found, err := s.store.Find(ctx, first.CardNumber, models.ChannelSMS)
	require.NoError(s.T(), err)
	require.Equal(s.T(), second.ID, found.ID)

	// Operations keyed on the superseded id must fail, not touch the new row.
	_, err = s.store.IncrementAttempts(ctx, first.ID)
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)
	require.ErrorIs(s.T(), s.store.Consume(ctx, first.ID, now), sentinel.ErrConflict)

	found, err = s.store.Find(ctx, first.CardNumber, models.ChannelSMS)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 0, found.Attempts)
	require.False(s.T(), found.Used)
}

func (s *PostgresStoreSuite) TestChannelsAreIndependent() {
	ctx := context.Background()
	now := time.Now().UTC()

	sms := s.newChallenge("CARD12345", models.ChannelSMS, now)
	email := s.newChallenge("CARD12345", models.ChannelEmail, now)
	require.NoError(s.T(), s.store.Replace(ctx, sms))
	require.NoError(s.T(), s.store.Replace(ctx, email))

	foundSMS, err := s.store.Find(ctx, sms.CardNumber, models.ChannelSMS)
	require.NoError(s.T(), err)
	require.Equal(s.T(), sms.ID, foundSMS.ID)

	foundEmail, err := s.store.Find(ctx, email.CardNumber, models.ChannelEmail)
	require.NoError(s.T(), err)
	require.Equal(s.T(), email.ID, foundEmail.ID)
}

func (s *PostgresStoreSuite) TestIncrementAttemptsStopsAtBudget() {
	ctx := context.Background()
	now := time.Now().UTC()

	challenge := s.newChallenge("CARD12345", models.ChannelSMS, now)
	require.NoError(s.T(), s.store.Replace(ctx, challenge))

	for want := 1; want <= 3; want++ {
		attempts, err := s.store.IncrementAttempts(ctx, challenge.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), want, attempts)
	}

	_, err := s.store.IncrementAttempts(ctx, challenge.ID)
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestIncrementAttemptsUnderConcurrency() {
	ctx := context.Background()
	now := time.Now().UTC()

	challenge := s.newChallenge("CARD12345", models.ChannelSMS, now)
	require.NoError(s.T(), s.store.Replace(ctx, challenge))

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.IncrementAttempts(ctx, challenge.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(s.T(), err, sentinel.ErrConflict)
		}
	}
	require.Equal(s.T(), 3, succeeded, "exactly max_attempts increments may land")

	found, err := s.store.Find(ctx, challenge.CardNumber, models.ChannelSMS)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, found.Attempts)
}

func (s *PostgresStoreSuite) TestConsumeExactlyOnce() {
	ctx := context.Background()
	now := time.Now().UTC()

	challenge := s.newChallenge("CARD12345", models.ChannelSMS, now)
	require.NoError(s.T(), s.store.Replace(ctx, challenge))

	require.NoError(s.T(), s.store.Consume(ctx, challenge.ID, now))
	require.ErrorIs(s.T(), s.store.Consume(ctx, challenge.ID, now), sentinel.ErrConflict)

	// A consumed row takes no further attempts either.
	_, err := s.store.IncrementAttempts(ctx, challenge.ID)
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestConsumeRejectsExpired() {
	ctx := context.Background()
	now := time.Now().UTC()

	challenge := s.newChallenge("CARD12345", models.ChannelSMS, now)
	require.NoError(s.T(), s.store.Replace(ctx, challenge))

	err := s.store.Consume(ctx, challenge.ID, now.Add(6*time.Minute))
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSweepRemovesUsedAndExpired() {
	ctx := context.Background()
	now := time.Now().UTC()

	used := s.newChallenge("CARD12345", models.ChannelSMS, now)
	require.NoError(s.T(), s.store.Replace(ctx, used))
	require.NoError(s.T(), s.store.Consume(ctx, used.ID, now))

	for i, channel := range []models.Channel{models.ChannelSMS, models.ChannelEmail} {
		number := fmt.Sprintf("CARD%05d", i)
		s.seedCard(number)
		expired := s.newChallenge(number, channel, now.Add(-10*time.Minute))
		require.NoError(s.T(), s.store.Replace(ctx, expired))
	}

	live := s.newChallenge("CARD12345", models.ChannelEmail, now)
	require.NoError(s.T(), s.store.Replace(ctx, live))

	removed, err := s.store.Sweep(ctx, now)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, removed)

	found, err := s.store.Find(ctx, live.CardNumber, models.ChannelEmail)
	require.NoError(s.T(), err)
	require.Equal(s.T(), live.ID, found.ID)

	removed, err = s.store.Sweep(ctx, now)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 0, removed)
}
