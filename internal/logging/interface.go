package logging

import "context"

// LoggerInterface defines the common interface for all loggers. Messages may
// carry printf verbs; arguments beyond the verbs are read as key/value pairs.
type LoggerInterface interface {
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message string, args ...interface{})
	Fatal(message string, args ...interface{})

	SetLevel(level Level)
	GetLevel() Level
}

// ContextLogger extends LoggerInterface with context support.
type ContextLogger interface {
	LoggerInterface
	WithContext(ctx context.Context) ContextLogger
	WithField(key string, value interface{}) ContextLogger
	WithFields(fields map[string]interface{}) ContextLogger
}

var _ ContextLogger = (*Logger)(nil)
