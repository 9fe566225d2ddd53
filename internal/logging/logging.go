// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the console logger used by the CLI and the
// pipeline stages. Domain events go to the JSONL run and call logs;
// slog is the operator-facing diagnostic channel.
package logging

import (
	"io"
	"strings"

	"log/slog"
)

// New creates a text-handler slog.Logger at the given level string.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
