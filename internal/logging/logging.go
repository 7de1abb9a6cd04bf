// Package logging builds the host's diagnostic logger.
//
// Chrome owns the host's stdout, so the log goes to a file next to the
// executable, falling back to stderr (which Chrome forwards to its own log).
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

import "github.com/sirupsen/logrus"

// Options configure New.
type Options struct {
	// Level is a logrus level name; invalid or empty values mean "info".
	Level string

	// File is the log path.  Empty means stderr only.
	File string

	// Fallback receives the log if File cannot be opened.  Defaults to
	// os.Stderr.
	Fallback io.Writer
}

// New returns a logger for the host and a function that closes its file.
//
// New never fails: problems opening the log file are reported on the
// fallback writer.
func New(opts Options) (*logrus.Logger, func()) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	fallback := opts.Fallback
	if fallback == nil {
		fallback = os.Stderr
	}
	logger.SetOutput(fallback)

	if opts.File == "" {
		return logger, func() {}
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		logger.Warnf("Failed to create log directory: %v", err)
		return logger, func() {}
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Warnf("Failed to open log file, logging to fallback: %v", err)
		return logger, func() {}
	}
	logger.SetOutput(f)
	return logger, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(fallback, "closing log file: %v\n", err)
		}
	}
}

// Null returns a logger that discards everything.
func Null() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
