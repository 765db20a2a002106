// Package logging adapts sirupsen/logrus to the domain Logger interface.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ochairo/specfetch/internal/domain/interfaces"
)

// LogrusLogger implements interfaces.Logger on top of a logrus logger
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger creates a text logger writing to out at the given level
// ("debug", "info", "warn", "error"). A nil out writes to stderr.
func NewLogrusLogger(level string, out io.Writer) (*LogrusLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableQuote:     true,
		QuoteEmptyFields: true,
	})

	return &LogrusLogger{entry: logrus.NewEntry(logger)}, nil
}

// ParseLevel validates a log level name. An empty name means "info".
func ParseLevel(level string) (logrus.Level, error) {
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", level)
	}
	return lvl, nil
}

// Debug logs debug-level messages
func (l *LogrusLogger) Debug(msg string, fields ...interfaces.Field) {
	l.with(fields).Debug(msg)
}

// Info logs informational messages
func (l *LogrusLogger) Info(msg string, fields ...interfaces.Field) {
	l.with(fields).Info(msg)
}

// Warn logs warning messages
func (l *LogrusLogger) Warn(msg string, fields ...interfaces.Field) {
	l.with(fields).Warn(msg)
}

// Error logs error messages
func (l *LogrusLogger) Error(msg string, fields ...interfaces.Field) {
	l.with(fields).Error(msg)
}

func (l *LogrusLogger) with(fields []interfaces.Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return l.entry.WithFields(data)
}
