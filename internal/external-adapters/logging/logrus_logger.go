// Package logging provides the logrus-backed implementation of the domain
// Logger contract.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"driverprov/internal/domain/interfaces"
)

// Logger adapts a logrus logger to the interfaces.Logger contract.
type Logger struct {
	logger *log.Logger
}

// New creates a logger writing to stderr. Quiet mode suppresses everything
// below error level.
func New(quiet bool) *Logger {
	return NewWithOutput(os.Stderr, quiet)
}

// NewWithOutput creates a logger writing to the given destination.
func NewWithOutput(out io.Writer, quiet bool) *Logger {
	l := log.New()
	l.SetOutput(out)
	l.SetFormatter(&log.TextFormatter{DisableTimestamp: false})
	if quiet {
		l.SetLevel(log.ErrorLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return &Logger{logger: l}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.WithFields(convertFields(fields)).Debug(msg)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.logger.WithFields(convertFields(fields)).Info(msg)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.WithFields(convertFields(fields)).Warn(msg)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.logger.WithFields(convertFields(fields)).Error(msg)
}

func convertFields(fields []interfaces.Field) log.Fields {
	out := make(log.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
