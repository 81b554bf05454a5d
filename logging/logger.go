// Package logging wires up the two loggers the daemon uses: a top-level
// slog.Logger for CLI/daemon messages (grounded on the teacher's
// ofelia.go buildLogger), and a handler.Logger backed by logrus for the
// handler engine (grounded on core/logrus_logger.go).
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/netresearch/loadedhandler/handler"
)

// BuildLogger returns a slog.Logger at the level named by level (one of
// trace/debug/info/notice/warning/error/critical, case-insensitive,
// defaulting to info) plus the LevelVar backing it so a running daemon
// can change verbosity without restarting.
func BuildLogger(level string) (*slog.Logger, *slog.LevelVar) {
	levelVar := &slog.LevelVar{}
	levelVar.Set(parseSlogLevel(level))

	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     levelVar,
	})
	return slog.New(h), levelVar
}

func parseSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "", "info", "notice":
		return slog.LevelInfo
	case "warning", "warn":
		return slog.LevelWarn
	case "error", "fatal", "panic", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandlerLogger builds a handler.Logger (a logrus.Logger wrapped by
// handler.LogrusAdapter) at the given level, for passing to
// handler.NewHandler.
func NewHandlerLogger(level string) handler.Logger {
	l := logrus.New()
	l.SetLevel(parseLogrusLevel(level))
	return handler.NewLogrusAdapter(l)
}

func parseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "", "info", "notice":
		return logrus.InfoLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal", "panic", "critical":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
