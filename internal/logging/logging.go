// Package logging builds the structured logger shared by smsgate binaries.
package logging

import (
	"fmt"
	"io"
	"strings"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"cdr.dev/slog/v3/sloggers/slogjson"
)

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", name)
	}
}

// New returns a logger writing to w at the named level. Format "json"
// selects JSON lines; anything else selects human-readable output.
func New(w io.Writer, level, format string) (slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return slog.Logger{}, err
	}
	var sink slog.Sink
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		sink = slogjson.Sink(w)
	case "", "human", "text":
		sink = sloghuman.Sink(w)
	default:
		return slog.Logger{}, fmt.Errorf("unknown log format %q (expected human|json)", format)
	}
	return slog.Make(sink).Leveled(lvl), nil
}
