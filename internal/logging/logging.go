package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "alert-registry.log"

// Logger writes leveled logs to stdout and, optionally, a rotated file.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New builds a Logger. An empty dir logs to stdout only.
func New(dir, level, format string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	base := logrus.New()
	base.SetLevel(lvl)
	switch format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text", "":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	l := &Logger{Logger: base}
	if dir == "" {
		base.SetOutput(os.Stdout)
		return l, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs folder failed: %w", err)
	}
	l.file = &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    50, // megabytes
		MaxBackups: 7,
		MaxAge:     30, // days
		Compress:   true,
	}
	// Output to both file and console
	base.SetOutput(io.MultiWriter(os.Stdout, l.file))
	return l, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Logger: base}
}

// WithRequestID tags subsequent entries with a request id.
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.WithField("request_id", requestID)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
