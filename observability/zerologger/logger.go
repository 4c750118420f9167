// Package zerologger adapts core.Logger onto github.com/rs/zerolog, for
// applications that already route their logs through zerolog sinks.
package zerologger

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/Swind/go-timer/core"
)

// Logger implements core.Logger on top of a zerolog.Logger. Fields are kept
// structured: console writers render them as key=value pairs, JSON sinks keep
// them as JSON members.
type Logger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New creates a Logger writing to w. A nil w defaults to stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Wrap creates a Logger around an existing zerolog.Logger, so the timer's
// diagnostics inherit the application's level, sampling and sink setup.
func Wrap(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...core.Field) {
	emit(l.zl.Debug(), msg, fields)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...core.Field) {
	emit(l.zl.Info(), msg, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...core.Field) {
	emit(l.zl.Warn(), msg, fields)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...core.Field) {
	emit(l.zl.Error(), msg, fields)
}

func emit(e *zerolog.Event, msg string, fields []core.Field) {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}
