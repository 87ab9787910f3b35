// Package logger provides leveled logging for the guru CLI.
// Debug and info output is only written in verbose mode (--verbose), which
// traces the answering pipeline: corpus load, index build and every turn.
// Warnings and errors are always written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level identifies the severity of a log line.
type Level int

const (
	// LevelDebug traces pipeline internals.
	LevelDebug Level = iota
	// LevelInfo reports pipeline progress.
	LevelInfo
	// LevelWarn reports a degradation the session recovered from.
	LevelWarn
	// LevelError reports a failure surfaced to the user.
	LevelError
)

// String returns the line prefix for the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether a line at the given level would be written.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled(l)
}

func enabled(l Level) bool {
	return verbose || l >= LevelWarn
}

func write(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled(l) {
		return
	}
	fmt.Fprintf(output, "["+l.String()+"] "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(LevelDebug, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(LevelInfo, format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write(LevelWarn, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write(LevelError, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
