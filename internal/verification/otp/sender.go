package otp

import (
	"context"
	"log/slog"
)

// LogSender is the demo SMS boundary: it logs the dispatch instead of calling
// a provider and returns the canned masked mobile the demo documents use.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs the demo sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message at debug level. The code is never logged above debug.
func (s *LogSender) Send(ctx context.Context, identifier, message string) (string, error) {
	s.logger.DebugContext(ctx, "demo sms dispatch", "message", message)
	return "******8923", nil
}
