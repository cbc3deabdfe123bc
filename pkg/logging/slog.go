package logging

import (
	"log/slog"
	"os"
)

// New returns a JSON logger tagged with the service name. Set LOG_LEVEL=debug
// to lower the threshold.
func New(service string) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h).With("service", service)
}
