// Package logger constructs the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. The level defaults to
// info; set TITLESEARCH_LOG_LEVEL=debug for verbose connector logging.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("TITLESEARCH_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
