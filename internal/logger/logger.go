package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the logging interface used throughout the bot
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
	WithContext(ctx context.Context) Logger
}

// SlogLogger implements the Logger interface using slog
type SlogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// New creates a new SlogLogger writing JSON records at the given level
func New(level slog.Level, output io.Writer) *SlogLogger {
	if output == nil {
		output = os.Stdout
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: level,
	})

	return &SlogLogger{
		logger: slog.New(handler),
		ctx:    context.Background(),
	}
}

// Default returns a new SlogLogger with default settings
func Default() *SlogLogger {
	return New(slog.LevelInfo, os.Stdout)
}

// Debug logs a debug message with alternating key/value args
func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Log(l.ctx, slog.LevelDebug, msg, args...)
}

// Info logs an info message with alternating key/value args
func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Log(l.ctx, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message with alternating key/value args
func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Log(l.ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message with alternating key/value args
func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Log(l.ctx, slog.LevelError, msg, args...)
}

// WithField returns a new logger with the given field attached to every record
func (l *SlogLogger) WithField(key string, value any) Logger {
	return &SlogLogger{
		logger: l.logger.With(key, value),
		ctx:    l.ctx,
	}
}

// WithFields returns a new logger with the given fields attached to every record
func (l *SlogLogger) WithFields(fields map[string]any) Logger {
	var attrs []any
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	return &SlogLogger{
		logger: l.logger.With(attrs...),
		ctx:    l.ctx,
	}
}

// WithContext returns a new logger that logs with the given context
func (l *SlogLogger) WithContext(ctx context.Context) Logger {
	return &SlogLogger{
		logger: l.logger,
		ctx:    ctx,
	}
}
