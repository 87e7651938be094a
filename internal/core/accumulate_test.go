package core

import (
	"testing"
	"time"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// manualClock lets tests advance time deterministically.
type manualClock struct{ now time.Time }

func (m *manualClock) Now() time.Time                         { return m.now }
func (m *manualClock) NewTicker(d time.Duration) Ticker        { return nil }
func (m *manualClock) advance(d time.Duration)                 { m.now = m.now.Add(d) }

func TestAccumulator_FiresAtThreshold(t *testing.T) {
	clk := &manualClock{now: time.Unix(0, 0)}
	a := NewAccumulator(1, primitives.AccumulatorConfig{Threshold: 10}, clk, nil)
	a.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, a.base.outbound)

	a.Trigger(4, primitives.EventContext(nil))
	a.Trigger(4, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("should not fire below threshold")
	}
	a.Trigger(2, primitives.EventContext(nil))
	if *count != 1 {
		t.Fatalf("expected fire at threshold, count=%d", *count)
	}
	if a.total != 0 {
		t.Fatalf("expected state cleared after fire")
	}
}

func TestAccumulator_Reset(t *testing.T) {
	clk := &manualClock{now: time.Unix(0, 0)}
	a := NewAccumulator(1, primitives.AccumulatorConfig{Threshold: 10}, clk, nil)
	a.Trigger(5, primitives.EventContext(nil))
	a.Trigger("Reset", primitives.EventContext(nil))
	if a.total != 0 || len(a.queue) != 0 {
		t.Fatalf("expected Reset to clear state")
	}
}

func TestAccumulator_TimeoutPrunesOldEntries(t *testing.T) {
	clk := &manualClock{now: time.Unix(0, 0)}
	a := NewAccumulator(1, primitives.AccumulatorConfig{Threshold: 10, Timeout: time.Second, HasTimeout: true}, clk, nil)
	a.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, a.base.outbound)

	a.Trigger(9, primitives.EventContext(nil))
	clk.advance(2 * time.Second)
	a.Trigger(9, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("expired entry should not contribute to threshold, count=%d", *count)
	}
}

func TestSpeedAlarm_FiresOverMaximum(t *testing.T) {
	clk := &manualClock{now: time.Unix(0, 0)}
	s := NewSpeedAlarm(1, primitives.SpeedAlarmConfig{MaximumSpeed: 5, Period: time.Minute}, clk, nil)
	s.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, s.base.outbound)

	s.Trigger(3, primitives.EventContext(nil))
	s.Trigger(2, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("should not fire at exactly the maximum")
	}
	s.Trigger(1, primitives.EventContext(nil))
	if *count != 1 {
		t.Fatalf("expected fire over maximum, count=%d", *count)
	}
	if s.total != 0 {
		t.Fatalf("expected state cleared after fire")
	}
}

func TestSpeedAlarm_WindowSlides(t *testing.T) {
	clk := &manualClock{now: time.Unix(0, 0)}
	s := NewSpeedAlarm(1, primitives.SpeedAlarmConfig{MaximumSpeed: 5, Period: time.Minute}, clk, nil)
	s.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, s.base.outbound)

	s.Trigger(5, primitives.EventContext(nil))
	clk.advance(2 * time.Minute)
	s.Trigger(1, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("old entries should have slid out of window, count=%d", *count)
	}
}

func TestSpeedAlarm_ZeroClears(t *testing.T) {
	clk := &manualClock{now: time.Unix(0, 0)}
	s := NewSpeedAlarm(1, primitives.SpeedAlarmConfig{MaximumSpeed: 5, Period: time.Minute}, clk, nil)
	s.Trigger(5, primitives.EventContext(nil))
	s.Trigger(0, primitives.EventContext(nil))
	if s.total != 0 {
		t.Fatalf("expected 0 parameter to clear state")
	}
}
