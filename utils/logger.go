package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	l *log.Logger
}

// NewLogger creates a new Logger writing to stderr at info level.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr)
}

// NewLoggerTo creates a Logger writing to w.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		l: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02 15:04:05",
			Level:           log.InfoLevel,
		}),
	}
}

// SetLevel changes the minimum level; accepts debug, info, warn, error.
func (l *Logger) SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	l.l.SetLevel(lvl)
	return nil
}

// WithPrefix returns a child logger tagging every line with prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{l: l.l.WithPrefix(prefix)}
}

func (l *Logger) Info(format string, args ...any) {
	l.l.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.l.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.l.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.l.Debugf(format, args...)
}
