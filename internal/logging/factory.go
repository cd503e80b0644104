package logging

import (
	"io"
	"os"
	"strings"
)

// LogFormat represents the log output format.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config represents logging configuration.
type Config struct {
	Level   string
	Format  LogFormat
	Service string
	Version string
	// File, when set, is opened in append mode and receives a copy of stderr.
	File string
}

// NewLoggerFromConfig creates a logger based on configuration. The returned
// closer is nil unless a log file was opened.
func NewLoggerFromConfig(cfg *Config) (ContextLogger, io.Closer) {
	format := cfg.Format
	if format == "" {
		if envFormat := os.Getenv("TICTACTOE_LOG_FORMAT"); envFormat != "" {
			format = LogFormat(strings.ToLower(envFormat))
		} else {
			format = FormatJSON
		}
	}

	var writer io.Writer = os.Stderr
	var file *os.File
	var fileErr error
	if cfg.File != "" {
		file, fileErr = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if fileErr == nil {
			writer = io.MultiWriter(os.Stderr, file)
		}
	}

	logger := NewLogger(writer, cfg.Service, cfg.Version, cfg.Level, string(format))
	if fileErr != nil {
		logger.Error("Failed to open log file, continuing on stderr only", "path", cfg.File, "error", fileErr)
	}

	if file != nil {
		return logger, file
	}
	return logger, nil
}
