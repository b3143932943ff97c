// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultLogFile = "generation.log"

// newLogger returns a logger that writes human-readable lines to console and
// JSON lines to logFile. Every line carries a fresh run ID. The returned
// closer releases the log file.
func newLogger(console io.Writer, level, logFile string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, setupErrorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return zerolog.Nop(), nil, setupErrorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, setupErrorf("opening log file: %w", err)
	}

	w := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339},
		f,
	)
	log := zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
	return log, f, nil
}

// logPath resolves the log file location for a run.
func logPath(logFile, outputPath string) string {
	if logFile != "" {
		return logFile
	}
	return filepath.Join(outputPath, defaultLogFile)
}

func closeQuietly(c io.Closer, name string) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing %s: %v\n", name, err)
	}
}
