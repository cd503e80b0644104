package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrus(l logrus.Level) Level {
	switch {
	case l >= logrus.DebugLevel:
		return DebugLevel
	case l == logrus.InfoLevel:
		return InfoLevel
	case l == logrus.WarnLevel:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

// Logger is a ContextLogger backed by logrus. Loggers derived with WithField
// or WithContext share the underlying logrus.Logger, so SetLevel affects all
// of them.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger writing to w. format is "json" or "text".
func NewLogger(w io.Writer, service, version, level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(parseLevel(level).logrus())

	switch format {
	case "text":
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	}

	fields := logrus.Fields{"service": service}
	if version != "" {
		fields["version"] = version
	}
	return &Logger{entry: base.WithFields(fields)}
}

// NewNopLogger returns a logger that discards everything. Useful in tests.
func NewNopLogger() *Logger {
	return NewLogger(io.Discard, "test", "", "error", "text")
}

// WithContext returns a logger with correlation and request IDs from context.
func (l *Logger) WithContext(ctx context.Context) ContextLogger {
	fields := logrus.Fields{}
	if correlationID, ok := CorrelationIDFromContext(ctx); ok {
		fields["correlation_id"] = correlationID
	}
	if requestID, ok := RequestIDFromContext(ctx); ok {
		fields["request_id"] = requestID
	}
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) ContextLogger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) ContextLogger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// log splits args into printf arguments and trailing key/value pairs.
func (l *Logger) log(level logrus.Level, message string, args ...interface{}) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}

	verbs := countVerbs(message)
	entry := l.entry
	switch {
	case len(args) == 0:
	case verbs > 0 && len(args) >= verbs:
		message = fmt.Sprintf(message, args[:verbs]...)
		entry = entry.WithFields(argsToFields(args[verbs:]))
	default:
		entry = entry.WithFields(argsToFields(args))
	}
	entry.Log(level, message)
}

func countVerbs(message string) int {
	n := 0
	for i := 0; i < len(message)-1; i++ {
		if message[i] != '%' {
			continue
		}
		if message[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

func argsToFields(args []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	if len(args)%2 == 1 {
		fields["extra"] = args[len(args)-1]
	}
	return fields
}

func (l *Logger) Debug(message string, args ...interface{}) {
	l.log(logrus.DebugLevel, message, args...)
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.log(logrus.InfoLevel, message, args...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(logrus.WarnLevel, message, args...)
}

func (l *Logger) Error(message string, args ...interface{}) {
	l.log(logrus.ErrorLevel, message, args...)
}

// Fatal logs at error level and exits.
func (l *Logger) Fatal(message string, args ...interface{}) {
	l.log(logrus.ErrorLevel, message, args...)
	os.Exit(1)
}

func (l *Logger) SetLevel(level Level) {
	l.entry.Logger.SetLevel(level.logrus())
}

func (l *Logger) GetLevel() Level {
	return fromLogrus(l.entry.Logger.GetLevel())
}
