package handler

import "github.com/sirupsen/logrus"

// Logger is the narrow logging surface the handler core depends on,
// matching the teacher's core.Logger interface so either a logrus.Logger
// (via LogrusAdapter) or a slog-backed adapter can be plugged in.
type Logger interface {
	Criticalf(format string, args ...any)
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
	Noticef(format string, args ...any)
	Warningf(format string, args ...any)
}

// LogrusAdapter wraps a *logrus.Logger to satisfy Logger. Adapted from the
// teacher's core/logrus_logger.go.
type LogrusAdapter struct {
	*logrus.Logger
}

var _ Logger = (*LogrusAdapter)(nil)

// NewLogrusAdapter wraps l as a Logger.
func NewLogrusAdapter(l *logrus.Logger) *LogrusAdapter {
	return &LogrusAdapter{Logger: l}
}

func (l *LogrusAdapter) Criticalf(format string, args ...any) {
	l.Logger.Logf(logrus.FatalLevel, format, args...)
}

func (l *LogrusAdapter) Debugf(format string, args ...any) {
	l.Logger.Debugf(format, args...)
}

func (l *LogrusAdapter) Errorf(format string, args ...any) {
	l.Logger.Errorf(format, args...)
}

func (l *LogrusAdapter) Noticef(format string, args ...any) {
	l.Logger.Infof(format, args...)
}

func (l *LogrusAdapter) Warningf(format string, args ...any) {
	l.Logger.Warnf(format, args...)
}
