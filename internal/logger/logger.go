package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures the process-wide logrus logger.
type Options struct {
	Level  string
	Format string
	File   string
	// Output defaults to stderr; stdout is reserved for command results.
	Output io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures the standard logrus logger and returns a closer for the log
// file, if one was opened. An unknown level falls back to info.
func Init(opts Options) (io.Closer, error) {
	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.File == "" {
		logrus.SetOutput(out)
		return nopCloser{}, nil
	}

	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(io.MultiWriter(out, file))
	return file, nil
}
