// Package flog is the engine's logging seam: a thin wrapper over zerolog so
// every pipeline stage logs through the same sink and the same field names.
//
// flog is exercised by the VM's fatal-assert dump and by cmd/flitterctl.
// The default logger writes console-formatted lines to stderr, so a
// fatal-assert dump during a run reaches stderr unless the host has called
// SetOutput, SetJSON or Discard.
package flog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	current = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
)

// Logger returns the process-wide logger. Safe for concurrent use.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetOutput redirects the process-wide logger to w as JSON lines; the
// console formatting of the default logger is not kept. Discard uses it to
// silence logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current = zerolog.New(w).With().Timestamp().Logger()
}

// SetJSON switches the process-wide logger to structured JSON output on w,
// the format a supervised/production host would want instead of the
// console-pretty default used for local development.
func SetJSON(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current = zerolog.New(w).With().Timestamp().Logger()
}

// Discard silences the logger entirely.
func Discard() { SetOutput(io.Discard) }
