package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veristay/internal/verification/models"
	"veristay/internal/verification/store"
	"veristay/pkg/platform/sentinel"
)

type InMemorySessionStoreSuite struct {
	suite.Suite
	store *store.InMemorySessionStore
}

func TestInMemorySessionStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemorySessionStoreSuite))
}

func (s *InMemorySessionStoreSuite) SetupTest() {
	s.store = store.NewInMemorySessionStore()
}

func (s *InMemorySessionStoreSuite) newSession() *models.Session {
	return models.NewSession(uuid.New(), "user-1", time.Now())
}

func (s *InMemorySessionStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	session := s.newSession()

	s.Require().NoError(s.store.Create(ctx, session))

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)
	s.Equal(models.StateIdle, got.State)
}

func (s *InMemorySessionStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	session := s.newSession()

	s.Require().NoError(s.store.Create(ctx, session))
	s.ErrorIs(s.store.Create(ctx, session), sentinel.ErrConflict)
}

func (s *InMemorySessionStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySessionStoreSuite) TestGetReturnsCopy() {
	ctx := context.Background()
	session := s.newSession()
	s.Require().NoError(s.store.Create(ctx, session))

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	got.State = models.StateVerified

	again, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateIdle, again.State)
}

func (s *InMemorySessionStoreSuite) TestExecutePersistsMutation() {
	ctx := context.Background()
	session := s.newSession()
	s.Require().NoError(s.store.Create(ctx, session))

	updated, err := s.store.Execute(ctx, session.ID, func(sess *models.Session) error {
		sess.State = models.StateScanning
		sess.InFlight = true
		return nil
	})
	s.Require().NoError(err)
	s.Equal(models.StateScanning, updated.State)
	s.True(updated.InFlight)
	s.Equal(int64(1), updated.Version)

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateScanning, got.State)
}

func (s *InMemorySessionStoreSuite) TestExecuteAbortsOnCallbackError() {
	ctx := context.Background()
	session := s.newSession()
	s.Require().NoError(s.store.Create(ctx, session))

	boom := errors.New("validation failed")
	_, err := s.store.Execute(ctx, session.ID, func(sess *models.Session) error {
		sess.State = models.StateVerified
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateIdle, got.State)
	s.Equal(int64(0), got.Version)
}

func (s *InMemorySessionStoreSuite) TestExecuteMissing() {
	_, err := s.store.Execute(context.Background(), uuid.New(), func(*models.Session) error {
		return nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySessionStoreSuite) TestExecuteSerializesConcurrentMutations() {
	ctx := context.Background()
	session := s.newSession()
	s.Require().NoError(s.store.Create(ctx, session))

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, session.ID, func(sess *models.Session) error {
				sess.Confidence++
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(float64(writers), got.Confidence)
	s.Equal(int64(writers), got.Version)
}

func (s *InMemorySessionStoreSuite) TestDelete() {
	ctx := context.Background()
	session := s.newSession()
	s.Require().NoError(s.store.Create(ctx, session))

	s.Require().NoError(s.store.Delete(ctx, session.ID))
	_, err := s.store.Get(ctx, session.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Delete(ctx, session.ID))
}
