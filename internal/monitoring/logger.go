// Package monitoring routes the report pipeline's diagnostics. Three
// streams are kept apart: ops (actionable warnings and failures), diag
// (per-file progress) and trace (per-analysis detail).
package monitoring

import (
	"io"
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

var (
	opsLogger   = newLogger("[report] ", os.Stderr)
	diagLogger  = newLogger("[report] ", os.Stderr)
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams.
// Pass nil for any writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger("[report] ", ops)
	diagLogger = newLogger("[report] ", diag)
	traceLogger = newLogger("[report] ", trace)
}

// SetVerbose routes all three streams to w, or mutes them when w is nil.
func SetVerbose(w io.Writer) {
	SetLogWriters(w, w, w)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmsgprefix)
}

// Opsf logs to the ops stream (skipped analyses, failed files).
func Opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// Diagf logs to the diag stream (files processed, outputs written).
func Diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// Tracef logs to the trace stream (cleaning counts, bin totals).
func Tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
