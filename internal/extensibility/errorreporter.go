// Package extensibility provides pluggable adapters around the stdlib-only
// interfaces declared in internal/core: error reporting, the wall-clock
// abstraction used by time-aware primitives, and a load-throttling test
// harness for concurrent ProcessEvent load tests. Mirrors the split between
// internal/core interfaces and internal/extensibility implementations.
package extensibility

import (
	"log"

	"github.com/flowlattice/cepengine/internal/core"
)

// DefaultErrorReporter is a core.ErrorReporter that writes every reported
// error via the standard log package, prefixed with "cepengine: ". An
// engine has no reporter unless one is installed with WithErrorReporter.
type DefaultErrorReporter struct{}

// Report logs err at its natural severity.
func (DefaultErrorReporter) Report(err error) {
	log.Printf("cepengine: %v", err)
}

// NoopErrorReporter discards every error, for embedders that want silent
// operation (e.g. because they already inspect returned errors from
// AddRule and treat runtime warnings as uninteresting).
type NoopErrorReporter struct{}

// Report does nothing.
func (NoopErrorReporter) Report(err error) {}

// LoggingErrorReporter wraps an inner core.ErrorReporter and additionally
// logs every error through the standard log package before delegating —
// the error-channel analogue of the teacher's LoggingActionRunner.
type LoggingErrorReporter struct {
	inner core.ErrorReporter
}

// NewLoggingErrorReporter creates a LoggingErrorReporter wrapping inner.
func NewLoggingErrorReporter(inner core.ErrorReporter) *LoggingErrorReporter {
	return &LoggingErrorReporter{inner: inner}
}

// Report logs err, then forwards it to the wrapped reporter.
func (r *LoggingErrorReporter) Report(err error) {
	log.Printf("cepengine: %v", err)
	if r.inner != nil {
		r.inner.Report(err)
	}
}
