package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/config"
)

// New creates a logger with the given level and format ("text" or "json").
// An invalid level falls back to info with a warning.
func New(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level: %s, using 'info'", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// FromConfig builds the process logger. When cfg.Log.File is set (the TUI
// sets it so logs do not paint over the screen) output goes to that file.
func FromConfig(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	if cfg.File == "" {
		return New(cfg.Level, cfg.Format, os.Stderr), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return New(cfg.Level, cfg.Format, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that writes nowhere, for tests
func Discard() *logrus.Logger {
	return New("panic", "text", io.Discard)
}
