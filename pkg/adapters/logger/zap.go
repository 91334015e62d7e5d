package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/pawfeed/pkg/ports"
)

// ZapLogger adapts a zap logger to ports.Logger. Messages are formatted
// untranslated so that structured output stays stable across locales.
type ZapLogger struct {
	log *zap.Logger
}

// NewZap creates a JSON logger writing to stderr at the given level.
func NewZap(level ports.LogLevel) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.Sampling = nil
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{log: l}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{log: l}
}

func zapLevel(level ports.LogLevel) zapcore.Level {
	switch level {
	case ports.LevelDebug:
		return zapcore.DebugLevel
	case ports.LevelWarn:
		return zapcore.WarnLevel
	case ports.LevelError:
		return zapcore.ErrorLevel
	case ports.LevelQuiet:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(msg, args...))
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(msg, args...))
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// WithComponent returns a logger carrying a component field.
func (l *ZapLogger) WithComponent(component string) ports.Logger {
	return &ZapLogger{log: l.log.With(zap.String("component", component))}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}

var _ ports.Logger = (*ZapLogger)(nil)
