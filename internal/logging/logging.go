// Package logging builds the zerolog logger used across tubestats.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the level and optional rotating log file.
type Options struct {
	Level      string
	File       string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
	Verbose    bool // forces debug
	Console    io.Writer
}

// New returns a logger writing human-readable lines to Console (stderr by
// default) and, when File is set, JSON lines to a lumberjack-rotated file.
func New(opts Options) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	if opts.Verbose {
		lvl = zerolog.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "tubestats").
		Logger()
}
