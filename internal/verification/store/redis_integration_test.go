//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"veristay/internal/verification/models"
	"veristay/internal/verification/store"
	"veristay/pkg/platform/sentinel"
	"veristay/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisSessionStore
}

func TestRedisSessionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedisSessionStore(s.redis.Client, 30*time.Minute)
}

func (s *RedisSessionStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSessionStoreSuite) TestRoundTripKeepsHiddenFields() {
	ctx := context.Background()
	session := models.NewSession(uuid.New(), "user-1", time.Now().UTC().Truncate(time.Second))
	session.ExtractedText = "aadhaar card government of india"
	session.AadhaarRef = "234567890123"
	session.InFlight = true

	s.Require().NoError(s.store.Create(ctx, session))

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ExtractedText, got.ExtractedText)
	s.Equal(session.AadhaarRef, got.AadhaarRef)
	s.True(got.InFlight)
}

func (s *RedisSessionStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	session := models.NewSession(uuid.New(), "user-1", time.Now())

	s.Require().NoError(s.store.Create(ctx, session))
	s.ErrorIs(s.store.Create(ctx, session), sentinel.ErrConflict)
}

func (s *RedisSessionStoreSuite) TestExecuteConcurrentIncrements() {
	ctx := context.Background()
	session := models.NewSession(uuid.New(), "user-1", time.Now())
	s.Require().NoError(s.store.Create(ctx, session))

	const writers = 10
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, err := s.store.Execute(ctx, session.ID, func(sess *models.Session) error {
				sess.Confidence++
				return nil
			})
			return err
		})
	}
	s.Require().NoError(g.Wait())

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(float64(writers), got.Confidence)
}

func (s *RedisSessionStoreSuite) TestDelete() {
	ctx := context.Background()
	session := models.NewSession(uuid.New(), "user-1", time.Now())
	s.Require().NoError(s.store.Create(ctx, session))

	s.Require().NoError(s.store.Delete(ctx, session.ID))
	_, err := s.store.Get(ctx, session.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
