package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalidLogLevel indicates an invalid log level string was provided.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ApplyLogLevel sets lv from level if level is non-empty, adapted from the
// teacher's cli/logging.go ApplyLogLevel.
func ApplyLogLevel(level string, lv *slog.LevelVar) error {
	if level == "" {
		return nil
	}

	var l slog.Level
	switch strings.ToLower(level) {
	case "trace", "debug":
		l = slog.LevelDebug
	case "info", "notice":
		l = slog.LevelInfo
	case "warning", "warn":
		l = slog.LevelWarn
	case "error", "fatal", "panic", "critical":
		l = slog.LevelError
	default:
		return fmt.Errorf("%w: %q (valid levels are debug, info, warn, error)", ErrInvalidLogLevel, level)
	}

	if lv != nil {
		lv.Set(l)
	}
	return nil
}
