// Package logging constructs the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New creates a JSON logger at the specified level writing to stderr.
// Level can be "debug", "info", "warn", or "error" (case-insensitive);
// invalid values fall back to "info".
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a JSON logger with a custom writer. Useful for
// tests and custom output destinations.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// NewFromConfig creates a logger based on configuration settings.
// Format is "json" or "text" (text renders with tint for terminals);
// output is "stderr", "stdout", "discard", or a file path.
func NewFromConfig(format, level, output string) (*slog.Logger, error) {
	logLevel := parseLevel(level)

	var writer io.Writer
	switch output {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	case "discard", "/dev/null":
		writer = io.Discard
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		writer = f
	}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = tint.NewHandler(writer, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
