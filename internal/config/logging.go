package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds Lumina's logger: human-readable text on stderr for
// the person running the CLI, JSON appended to the log file for later
// inspection. The returned cleanup closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Stderr-only beats losing log output entirely.
		logger := slog.New(textHandler(os.Stderr, level))
		logger.Warn("log file unavailable, logging to stderr only", "error", err, "file", logFile)
		return logger, func() error { return nil }
	}

	return newFanout(os.Stderr, file, level), func() error { return file.Close() }
}

// SetupLoggerWithWriters builds the same text+JSON fanout over arbitrary
// writers so tests can capture both streams.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return newFanout(stderr, file, level)
}

func newFanout(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		textHandler(stderr, level),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
