package extensibility

import (
	"errors"
	"testing"
)

type recordingReporter struct {
	got []error
}

func (r *recordingReporter) Report(err error) { r.got = append(r.got, err) }

func TestLoggingErrorReporterForwards(t *testing.T) {
	inner := &recordingReporter{}
	r := NewLoggingErrorReporter(inner)
	want := errors.New("boom")
	r.Report(want)

	if len(inner.got) != 1 || inner.got[0] != want {
		t.Fatalf("expected inner reporter to receive %v, got %v", want, inner.got)
	}
}

func TestNoopErrorReporterDiscards(t *testing.T) {
	// Must not panic, and has nothing observable to assert beyond that.
	NoopErrorReporter{}.Report(errors.New("ignored"))
}
