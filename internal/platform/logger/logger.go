package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Services receive it via options and attach
// request-scoped attributes themselves.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
