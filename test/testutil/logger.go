// Package testutil provides test doubles shared across the handler, plugin
// and host packages: a recording logger and a minimal manually-driven
// Generator, adapted from the teacher's core/job_test_helpers.go MockLogger.
package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// RecordingLogger implements handler.Logger, keeping every formatted line
// so tests can assert on warnings/errors without scraping stdout.
type RecordingLogger struct {
	mu   sync.Mutex
	logs []string
}

func (l *RecordingLogger) Criticalf(format string, args ...any) { l.record("CRITICAL", format, args...) }
func (l *RecordingLogger) Debugf(format string, args ...any)    { l.record("DEBUG", format, args...) }
func (l *RecordingLogger) Errorf(format string, args ...any)    { l.record("ERROR", format, args...) }
func (l *RecordingLogger) Noticef(format string, args ...any)   { l.record("NOTICE", format, args...) }
func (l *RecordingLogger) Warningf(format string, args ...any)  { l.record("WARNING", format, args...) }

func (l *RecordingLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, level+": "+fmt.Sprintf(format, args...))
}

// Logs returns a snapshot of every recorded line.
func (l *RecordingLogger) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.logs))
	copy(out, l.logs)
	return out
}

// ContainsSubstring reports whether any recorded line contains substr.
func (l *RecordingLogger) ContainsSubstring(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.logs {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
