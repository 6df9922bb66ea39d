// Package logging provides the structured logger used across snaprotate.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/raoulx24/snaprotate/internal/config"
)

// Logger takes a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds a logrus-backed Logger writing to stderr.
func New(cfg config.LoggingConfig) (Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (Logger, error) {
	l := logrus.New()
	l.SetOutput(w)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}
	l.SetLevel(lvl)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}, nil
}

// Discard returns a Logger that drops everything. Used by tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Debug(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Debug(msg) }
func (l *logrusLogger) Info(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Info(msg) }
func (l *logrusLogger) Warn(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Warn(msg) }
func (l *logrusLogger) Error(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Error(msg) }

func (l *logrusLogger) With(kv ...any) Logger {
	return &logrusLogger{entry: l.entry.WithFields(fields(kv))}
}

// fields turns k1, v1, k2, v2 into logrus.Fields. A dangling key is kept
// under "!BADKEY" rather than dropped.
func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			f["!BADKEY"] = kv[i]
			break
		}
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
