// Package logger is the process-wide structured logger.
//
// The chat TUI owns the terminal, so the logger writes to a file under the
// config directory. Until Init is called every call is a no-op.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers need not import logrus.
type Fields = logrus.Fields

var (
	mu  sync.RWMutex
	log *logrus.Logger
	out io.Closer
)

// Init configures the logger. level is debug, info, warn or error;
// format is text or json. w receives the output.
func Init(level, format string, w io.Writer) {
	l := logrus.New()

	switch level {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
		})
	}

	l.SetOutput(w)

	mu.Lock()
	log = l
	mu.Unlock()
}

// InitFile opens (or creates) path in append mode and logs into it.
func InitFile(level, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	Close()
	Init(level, "text", f)

	mu.Lock()
	out = f
	mu.Unlock()
	return nil
}

// Close releases the log file opened by InitFile.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		_ = out.Close()
		out = nil
	}
	log = nil
}

func get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields returns an entry carrying fields. It is safe before Init.
func WithFields(fields Fields) *logrus.Entry {
	if l := get(); l != nil {
		return l.WithFields(fields)
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard.WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Errorf(format, args...)
	}
}
