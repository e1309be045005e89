package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. The level defaults to Info
// and can be lowered with VERISTAY_LOG_LEVEL=debug.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("VERISTAY_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
