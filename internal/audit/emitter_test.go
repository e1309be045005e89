package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veristay/internal/audit"
	"veristay/pkg/requestcontext"
)

type EmitterSuite struct {
	suite.Suite
	buffer  *audit.RingBuffer
	emitter *audit.Emitter
}

func TestEmitterSuite(t *testing.T) {
	suite.Run(t, new(EmitterSuite))
}

func (s *EmitterSuite) SetupTest() {
	s.buffer = audit.NewRingBuffer(16)
	s.emitter = audit.NewEmitter(s.buffer)
}

func (s *EmitterSuite) TestEmitCapturesRequestContext() {
	now := time.Now().Truncate(time.Second)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithUserID(ctx, "user-1")
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")

	s.emitter.Emit(ctx, audit.ActionOTPSent, "session-1", "",
		audit.String("mobile_masked", "******8923"))

	batch := s.buffer.DequeueBatch(10)
	s.Require().Len(batch, 1)

	event := batch[0]
	s.Equal(audit.ActionOTPSent, event.Action)
	s.Equal("user-1", event.UserID)
	s.Equal("session-1", event.SessionID)
	s.Equal("req-42", event.RequestID)
	s.Equal("203.0.113.7", event.IP)
	s.Contains(event.Device, "mobile")
	s.Equal(now, event.Timestamp)
	s.Equal("******8923", event.Metadata["mobile_masked"])
	s.NotEqual("", event.ID.String())
}

func (s *EmitterSuite) TestEmitWithoutContextMetadata() {
	s.emitter.Emit(context.Background(), audit.ActionSessionStarted, "session-1", "")

	batch := s.buffer.DequeueBatch(10)
	s.Require().Len(batch, 1)
	s.Empty(batch[0].UserID)
	s.Empty(batch[0].Device)
	s.Nil(batch[0].Metadata)
}

func (s *EmitterSuite) TestWorkerDrainsToAllSinks() {
	first := audit.NewInMemoryStore()
	second := audit.NewInMemoryStore()
	worker := audit.NewWorker(s.buffer, []audit.Store{first, second},
		audit.WithBatchSize(2))

	for i := 0; i < 5; i++ {
		s.emitter.Emit(context.Background(), audit.ActionOTPMismatch, "session-1", "wrong code")
	}

	worker.Flush(context.Background())

	s.Equal(5, first.Len())
	s.Equal(5, second.Len())
	s.Equal(0, s.buffer.Len())

	events, err := first.ListByAction(context.Background(), audit.ActionOTPMismatch)
	s.Require().NoError(err)
	s.Len(events, 5)
	s.Equal("wrong code", events[0].Reason)
}

func (s *EmitterSuite) TestWorkerRunStopsOnCancel() {
	store := audit.NewInMemoryStore()
	worker := audit.NewWorker(s.buffer, []audit.Store{store},
		audit.WithInterval(10*time.Millisecond))

	s.emitter.Emit(context.Background(), audit.ActionVerified, "session-1", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	s.Eventually(func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	s.ErrorIs(err, context.Canceled)
}

func (s *EmitterSuite) TestWorkerFinalDrainOnShutdown() {
	store := audit.NewInMemoryStore()
	worker := audit.NewWorker(s.buffer, []audit.Store{store},
		audit.WithInterval(time.Hour)) // ticker never fires

	s.emitter.Emit(context.Background(), audit.ActionSessionReset, "session-1", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := worker.Run(ctx)
	s.ErrorIs(err, context.Canceled)
	s.Equal(1, store.Len())
}
