// Package planlog wraps zap the way the teacher's monitoring/logging.go
// wraps its own structured logger, scoping every logger to a component
// name so planner log lines can be filtered by subsystem.
package planlog

import (
	"go.uber.org/zap"
)

// Logger scopes a zap.Logger to one planner component (enumerator,
// selector, rewrite, ...).
type Logger struct {
	z *zap.Logger
}

// New builds a Logger backed by a production zap configuration.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNop returns a Logger that discards everything, for tests and for
// callers that have not configured logging.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Named returns a child Logger scoped to component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{z: l.z.Named(component)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)   { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)   { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field)  { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }
