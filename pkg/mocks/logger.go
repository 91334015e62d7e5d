package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/pawfeed/pkg/ports"
)

// Logger is a mock implementation of ports.Logger that records messages.
// Loggers derived with WithComponent share one record.
type Logger struct {
	component string
	rec       *logRecord
}

type logRecord struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one recorded message.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// NewLogger creates a new recording Logger.
func NewLogger() *Logger {
	return &Logger{rec: &logRecord{}}
}

func (m *Logger) log(level ports.LogLevel, msg string, args ...interface{}) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.entries = append(m.rec.entries, LogEntry{
		Level:     level,
		Component: m.component,
		Message:   fmt.Sprintf(msg, args...),
	})
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.log(ports.LevelDebug, msg, args...) }
func (m *Logger) Info(msg string, args ...interface{})  { m.log(ports.LevelInfo, msg, args...) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.log(ports.LevelWarn, msg, args...) }
func (m *Logger) Error(msg string, args ...interface{}) { m.log(ports.LevelError, msg, args...) }

func (m *Logger) WithComponent(component string) ports.Logger {
	return &Logger{component: component, rec: m.rec}
}

// Entries returns a copy of all recorded messages.
func (m *Logger) Entries() []LogEntry {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]LogEntry(nil), m.rec.entries...)
}

// Contains reports whether any message at level contains substr.
func (m *Logger) Contains(level ports.LogLevel, substr string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
