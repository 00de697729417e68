// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation limits.
const (
	maxLogSizeMB  = 5
	maxLogBackups = 3
	maxLogAgeDays = 28
)

// Console sends human-readable logs to w (normally stderr).
func Console(w io.Writer, level string) {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(level))
}

// File appends JSON logs to a size-rotated file at path. The returned closer
// must be closed when the program exits.
func File(path, level string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}
	// Open eagerly so an unwritable path fails here, not on first log line.
	if _, err := w.Write(nil); err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	return w, nil
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
