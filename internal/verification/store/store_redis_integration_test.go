//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	otpmodels "github.com/Coritp27/sysga-sub002/internal/otp/models"
	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
	"github.com/Coritp27/sysga-sub002/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := &RedisStoreSuite{redis: containers.NewRedisContainer(t)}
	suite.Run(t, s)
}

func (s *RedisStoreSuite) SetupTest() {
	require.NoError(s.T(), s.redis.FlushAll(context.Background()))
	s.store = NewRedis(s.redis.Client)
}

func newSession(ttl time.Duration) models.Session {
	now := time.Now().UTC()
	return models.Session{
		ID:         id.SessionID(uuid.New()),
		CardNumber: "CARD12345",
		Channel:    otpmodels.ChannelSMS,
		ActorID:    "clinic-17",
		ActorRole:  requestcontext.RoleVerifier,
		State:      models.StateChallengeIssued,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	session := newSession(15 * time.Minute)

	require.NoError(s.T(), s.store.Create(ctx, session))

	found, err := s.store.Find(ctx, session.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), session.ID, found.ID)
	require.Equal(s.T(), session.CardNumber, found.CardNumber)
	require.Equal(s.T(), session.ActorID, found.ActorID)
	require.Equal(s.T(), requestcontext.RoleVerifier, found.ActorRole)
	require.Equal(s.T(), models.StateChallengeIssued, found.State)
}

func (s *RedisStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	session := newSession(15 * time.Minute)

	require.NoError(s.T(), s.store.Create(ctx, session))
	require.ErrorIs(s.T(), s.store.Create(ctx, session), sentinel.ErrConflict)
}

func (s *RedisStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(context.Background(), id.SessionID(uuid.New()))
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestUpdateCAS() {
	ctx := context.Background()
	session := newSession(15 * time.Minute)
	require.NoError(s.T(), s.store.Create(ctx, session))

	session.State = models.StateVerified
	require.NoError(s.T(), s.store.Update(ctx, session, models.StateChallengeIssued))

	// A writer still expecting the old state must lose.
	stale := session
	stale.State = models.StateFailed
	stale.FailureCode = "locked"
	err := s.store.Update(ctx, stale, models.StateChallengeIssued)
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)

	found, err := s.store.Find(ctx, session.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), models.StateVerified, found.State)
	require.Empty(s.T(), found.FailureCode)
}

func (s *RedisStoreSuite) TestUpdateMissingSessionConflicts() {
	session := newSession(15 * time.Minute)
	session.State = models.StateVerified
	err := s.store.Update(context.Background(), session, models.StateChallengeIssued)
	require.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *RedisStoreSuite) TestSessionEvictedAfterTTL() {
	ctx := context.Background()
	session := newSession(-time.Minute) // already past its deadline, TTL clamps to 1s

	require.NoError(s.T(), s.store.Create(ctx, session))

	require.Eventually(s.T(), func() bool {
		_, err := s.store.Find(ctx, session.ID)
		return errors.Is(err, sentinel.ErrNotFound)
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisStoreSuite) TestDeleteExpiredIsNoOp() {
	removed, err := s.store.DeleteExpired(context.Background(), time.Now())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 0, removed)
}
