package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services and consumers
// receive it by reference; no package pulls a logger out of thin air.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
