// Package logging builds the application logger
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much the logger writes
type Options struct {
	Dir        string
	File       string // Base file name inside Dir
	Level      string
	Console    bool // Also write to stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger is a logrus logger writing to a rotating file
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New creates the log directory and returns a logger writing to it
func New(opts Options) (*Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs folder failed: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, opts.File),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	var out io.Writer = file
	if opts.Console {
		out = io.MultiWriter(file, os.Stdout)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	return &Logger{Logger: logger, file: file}, nil
}

// Close flushes and closes the log file
func (l *Logger) Close() error {
	return l.file.Close()
}
