package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"veristay/pkg/requestcontext"
)

// Emitter builds events from request context and enqueues them without
// blocking. Request handlers call it inline; the buffer absorbs bursts.
type Emitter struct {
	buffer *RingBuffer
	logger *slog.Logger
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EmitterOption {
	return func(e *Emitter) { e.logger = l }
}

// NewEmitter constructs an emitter over the given buffer.
func NewEmitter(buffer *RingBuffer, opts ...EmitterOption) *Emitter {
	e := &Emitter{buffer: buffer, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Field attaches one metadata key/value pair to an emitted event.
type Field struct {
	Key   string
	Value string
}

// String builds a metadata field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Emit records one action. User, request and client details come from the
// context; sessionID and reason describe the subject.
func (e *Emitter) Emit(ctx context.Context, action, sessionID, reason string, fields ...Field) {
	event := Event{
		ID:        uuid.New(),
		Action:    action,
		SessionID: sessionID,
		Reason:    reason,
		Timestamp: requestcontext.Now(ctx),
	}

	event.UserID = requestcontext.UserID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.IP = requestcontext.ClientIP(ctx)
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		event.Device = describeDevice(ua)
	}

	if len(fields) > 0 {
		event.Metadata = make(map[string]string, len(fields))
		for _, f := range fields {
			event.Metadata[f.Key] = f.Value
		}
	}

	e.buffer.Enqueue(event)
	e.logger.DebugContext(ctx, "audit event queued", "action", action, "session_id", sessionID)
}

// describeDevice condenses a User-Agent header into a short display string.
func describeDevice(raw string) string {
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	kind := "desktop"
	if ua.Mobile() {
		kind = "mobile"
	}
	return fmt.Sprintf("%s %s (%s, %s)", name, version, ua.OS(), kind)
}
