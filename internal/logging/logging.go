// Package logging configures the logrus logger used across reelhound.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, format, and an optional rotating log file.
type Options struct {
	Level string
	Debug bool
	JSON  bool
	File  string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the standard logrus logger to write to stderr.
// The returned closer releases the log file, if any.
func Setup(opts Options) io.Closer {
	return Configure(logrus.StandardLogger(), opts, os.Stderr)
}

// Configure applies opts to l. Unknown levels fall back to warn.
func Configure(l *logrus.Logger, opts Options, console io.Writer) io.Closer {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File == "" {
		l.SetOutput(console)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(console, file))
	return file
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
