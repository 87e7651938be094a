package core

import (
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

type capturingReporter struct{ errs []error }

func (r *capturingReporter) Report(err error) { r.errs = append(r.errs, err) }

func fireOutbound(t *testing.T, s *SignalSource) *int {
	t.Helper()
	count := 0
	target := NewSignalTarget(func(param any, ctx primitives.SignalContext) { count++ })
	s.Connect(target, primitives.ParamTemplate{})
	s.Resume(target)
	return &count
}

func TestBasicCounter_IncrementDecrementReset(t *testing.T) {
	c := NewBasicCounter(1, nil)
	c.Trigger(1, primitives.SignalContext{})
	c.Trigger(1, primitives.SignalContext{})
	c.Trigger(-1, primitives.SignalContext{})
	v, ok := c.Check(nil)
	if !ok || v.(int64) != 1 {
		t.Fatalf("got %v, %v", v, ok)
	}
	c.Trigger(0, primitives.SignalContext{})
	v, _ = c.Check(nil)
	if v.(int64) != 0 {
		t.Fatalf("reset failed, got %v", v)
	}
}

func TestBasicCounter_BadParam(t *testing.T) {
	rep := &capturingReporter{}
	c := NewBasicCounter(1, rep)
	c.reporter = rep
	c.Trigger("nope", primitives.SignalContext{})
	if len(rep.errs) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(rep.errs))
	}
}

func TestCountdownCounter_FiresOnceThenPausesSelf(t *testing.T) {
	c := NewCountdownCounter(1, primitives.CountdownCounterConfig{StartFrom: 2}, nil)
	c.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, c.base.outbound)

	src := NewSignalSource(nil)
	c.base.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	src.Connect(c.base.target, mustLiteralTemplate(t, 1, nil))
	src.Resume(c.base.target)

	src.Trigger(primitives.SignalContext{})
	if *count != 0 {
		t.Fatalf("should not fire yet, count=%d", *count)
	}
	src.Trigger(primitives.SignalContext{})
	if *count != 1 {
		t.Fatalf("expected fire, count=%d", *count)
	}

	edges := src.edges
	if !edges[0].paused {
		t.Fatalf("expected self-pause after firing")
	}
}

func TestCountdownCounter_ZeroResets(t *testing.T) {
	c := NewCountdownCounter(1, primitives.CountdownCounterConfig{StartFrom: 1}, nil)
	c.base.outbound = NewSignalSource(nil)
	fireOutbound(t, c.base.outbound)
	c.base.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) {})

	c.Trigger(1, primitives.SignalContext{})
	if !c.fired.Load() {
		t.Fatalf("expected fired")
	}
	c.Trigger(0, primitives.SignalContext{})
	if c.fired.Load() {
		t.Fatalf("expected reset to clear fired")
	}
	if c.value.Load() != 1 {
		t.Fatalf("expected value reset to StartFrom, got %d", c.value.Load())
	}
}

func TestRepeatCounter_FiresAndRestarts(t *testing.T) {
	c := NewRepeatCounter(1, primitives.RepeatCounterConfig{RestartAt: 2}, nil)
	c.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, c.base.outbound)

	c.Trigger(1, primitives.SignalContext{})
	if *count != 0 {
		t.Fatalf("should not fire yet")
	}
	c.Trigger(1, primitives.SignalContext{})
	if *count != 1 {
		t.Fatalf("expected fire, got count=%d", *count)
	}
	if c.value.Load() != 2 {
		t.Fatalf("expected restart value 2, got %d", c.value.Load())
	}
}
