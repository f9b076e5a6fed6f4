package config

import (
	"io"
	"log/slog"

	"github.com/keneslab/sitegen/internal/foundation"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var (
	logLevels = foundation.NewEnum(LogLevelInfo, map[string]LogLevel{
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
	})
	logFormats = foundation.NewEnum(LogFormatText, map[string]LogFormat{
		"text": LogFormatText,
		"json": LogFormatJSON,
	})
)

// NormalizeLogLevel maps free-form input onto a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel { return logLevels.Parse(raw) }

// NormalizeLogFormat maps free-form input onto a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat { return logFormats.Parse(raw) }

// SlogLevel converts the configured level; verbose forces debug.
func (l LoggingConfig) SlogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch NormalizeLogLevel(l.Level) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the slog logger described by the logging section.
func (l LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel(verbose)}
	if NormalizeLogFormat(l.Format) == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
