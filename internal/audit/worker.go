package audit

import (
	"context"
	"log/slog"
	"time"
)

// Worker drains the ring buffer into its sinks on a fixed cadence. A sink
// error is logged and the batch is abandoned for that sink; events are not
// redelivered. Audit here is best-effort by contract.
type Worker struct {
	buffer    *RingBuffer
	sinks     []Store
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithInterval sets the drain cadence.
func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.interval = d }
}

// WithBatchSize caps how many events one drain pass takes.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) { w.batchSize = n }
}

// WithWorkerLogger sets the logger.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

// NewWorker constructs a worker draining buffer into sinks.
func NewWorker(buffer *RingBuffer, sinks []Store, opts ...WorkerOption) *Worker {
	w := &Worker{
		buffer:    buffer,
		sinks:     sinks,
		interval:  time.Second,
		batchSize: 256,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains until ctx is cancelled, then makes one final pass so shutdown
// does not discard queued events.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// Flush drains everything currently buffered. Exposed for tests and shutdown.
func (w *Worker) Flush(ctx context.Context) {
	w.drain(ctx)
}

func (w *Worker) drain(ctx context.Context) {
	for {
		batch := w.buffer.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, sink := range w.sinks {
			if err := sink.Append(ctx, batch); err != nil {
				w.logger.ErrorContext(ctx, "audit sink append failed",
					"error", err, "events", len(batch))
			}
		}
	}
}
