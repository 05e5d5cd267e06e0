package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is a deliberately small, framework-agnostic logging interface.
// Components depend on it rather than on slog so tests can swap in a dummy.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value any
}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	l *slog.Logger
}

// NewStdoutLogger creates a JSON-lines logger writing to stdout. component is
// optional and is attached as a persistent field.
func NewStdoutLogger(component string) *SlogLogger {
	return NewJSONLogger(os.Stdout, slog.LevelInfo, component)
}

// NewJSONLogger creates a JSON-lines logger writing to w.
func NewJSONLogger(w io.Writer, level slog.Level, component string) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return withComponent(slog.New(h), component)
}

// NewConsoleLogger creates a colourised, human-oriented logger for local runs.
func NewConsoleLogger(w io.Writer, level slog.Level, component string) *SlogLogger {
	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	return withComponent(slog.New(h), component)
}

// New picks a logger implementation by format name ("json" or "console").
func New(format, level, component string) Logger {
	lvl := ParseLevel(level)
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		return NewConsoleLogger(os.Stderr, lvl, component)
	}
	return NewJSONLogger(os.Stdout, lvl, component)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withComponent(l *slog.Logger, component string) *SlogLogger {
	if component != "" {
		l = l.With(slog.String("component", component))
	}
	return &SlogLogger{l: l}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

func (s *SlogLogger) Debug(msg string, fields ...Field) {
	s.l.Debug(msg, attrs(fields)...)
}

func (s *SlogLogger) Info(msg string, fields ...Field) {
	s.l.Info(msg, attrs(fields)...)
}

func (s *SlogLogger) Warn(msg string, fields ...Field) {
	s.l.Warn(msg, attrs(fields)...)
}

func (s *SlogLogger) Error(msg string, fields ...Field) {
	s.l.Error(msg, attrs(fields)...)
}

func (s *SlogLogger) With(fields ...Field) Logger {
	return &SlogLogger{l: s.l.With(attrs(fields)...)}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &SlogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
