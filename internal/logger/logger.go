// Package logger provides verbose logging for the retrieval pipeline.
// Debug and info messages are gated behind verbose mode; warnings are
// always printed because they signal a degraded search (a skipped
// vector leg, a fallback query) that the user should see.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

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

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// emit writes a prefixed line, honouring the verbose gate when asked to.
func emit(gated bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(true, "[DEBUG] ", format, args...)
}

// Section prints a stage header if verbose mode is enabled.
func Section(name string) {
	emit(true, "", "\n=== %s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(true, "[INFO] ", format, args...)
}

// Warn prints a warning message. Warnings are not gated on verbose
// mode.
func Warn(format string, args ...any) {
	emit(false, "[WARN] ", format, args...)
}
