package core

import (
	"sync"
	"time"

	"github.com/flowlattice/cepengine/internal/primitives"
)

type accumulatorEntry struct {
	value    int64
	ctx      primitives.SignalContext
	deadline time.Time
}

// Accumulator sums a sliding window of integer inputs (entries older than
// Timeout are pruned) and fires once the running total reaches Threshold,
// emitting a context whose first element is the raw total and whose
// remaining elements are the retained per-input contexts.
type Accumulator struct {
	*base
	clock Clock
	cfg   primitives.AccumulatorConfig
	mu    sync.Mutex
	queue []accumulatorEntry
	total int64
}

// NewAccumulator constructs an empty Accumulator.
func NewAccumulator(id PrimitiveID, cfg primitives.AccumulatorConfig, clock Clock, reporter ErrorReporter) *Accumulator {
	a := &Accumulator{base: newBase(id, "Accumulator", reporter), clock: clock, cfg: cfg}
	a.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { a.Trigger(param, ctx) })
	return a
}

func (a *Accumulator) Trigger(param any, ctx primitives.SignalContext) {
	if s, ok := param.(string); ok {
		if s != "Reset" {
			a.warn("Accumulator: unrecognized string parameter %q", s)
			return
		}
		a.mu.Lock()
		a.queue = nil
		a.total = 0
		a.mu.Unlock()
		return
	}

	n, ok := toInt(param)
	if !ok {
		a.warn("Accumulator: expected integer or \"Reset\", got %T", param)
		return
	}

	a.mu.Lock()
	now := a.clock.Now()
	a.pruneLocked(now)

	var deadline time.Time
	if a.cfg.HasTimeout {
		deadline = now.Add(a.cfg.Timeout)
	}
	a.queue = append(a.queue, accumulatorEntry{value: int64(n), ctx: ctx, deadline: deadline})
	a.total += int64(n)

	fire := a.total >= int64(a.cfg.Threshold)
	var out []primitives.SignalContext
	if fire {
		out = make([]primitives.SignalContext, 0, len(a.queue)+1)
		out = append(out, primitives.RawContext(a.total))
		for _, e := range a.queue {
			out = append(out, e.ctx)
		}
		a.queue = nil
		a.total = 0
	}

	if fire && a.outbound != nil {
		a.outbound.Trigger(primitives.ListContext(out))
	}
	a.mu.Unlock()
}

// pruneLocked must be called with a.mu held. It drops queue-head entries
// past their deadline, subtracting their value from the running total.
func (a *Accumulator) pruneLocked(now time.Time) {
	if !a.cfg.HasTimeout {
		return
	}
	i := 0
	for i < len(a.queue) && !a.queue[i].deadline.IsZero() && now.After(a.queue[i].deadline) {
		a.total -= a.queue[i].value
		i++
	}
	if i > 0 {
		a.queue = a.queue[i:]
	}
}

type speedEntry struct {
	value int64
	at    time.Time
}

// SpeedAlarm fires once when more than MaximumSpeed units of input have
// accumulated within any sliding window of length Period.
type SpeedAlarm struct {
	*base
	clock Clock
	cfg   primitives.SpeedAlarmConfig
	mu    sync.Mutex
	queue []speedEntry
	total int64
}

// NewSpeedAlarm constructs an empty SpeedAlarm.
func NewSpeedAlarm(id PrimitiveID, cfg primitives.SpeedAlarmConfig, clock Clock, reporter ErrorReporter) *SpeedAlarm {
	s := &SpeedAlarm{base: newBase(id, "SpeedAlarm", reporter), clock: clock, cfg: cfg}
	s.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { s.Trigger(param, ctx) })
	return s
}

func (s *SpeedAlarm) Trigger(param any, ctx primitives.SignalContext) {
	n, ok := toInt(param)
	if !ok {
		s.warn("SpeedAlarm: expected integer parameter, got %T", param)
		return
	}

	s.mu.Lock()
	if n == 0 {
		s.queue = nil
		s.total = 0
		s.mu.Unlock()
		return
	}
	if n < 0 {
		s.mu.Unlock()
		s.warn("SpeedAlarm: expected a non-negative integer, got %d", n)
		return
	}

	now := s.clock.Now()
	s.queue = append(s.queue, speedEntry{value: int64(n), at: now})
	s.total += int64(n)

	fire := false
	if s.total > int64(s.cfg.MaximumSpeed) {
		s.trimLocked(now)
		if s.total > int64(s.cfg.MaximumSpeed) {
			fire = true
			s.queue = nil
			s.total = 0
		}
	}

	if fire && s.outbound != nil {
		s.outbound.Trigger(ctx)
	}
	s.mu.Unlock()
}

// trimLocked must be called with s.mu held. It drops entries older than
// now-Period, subtracting their value from the running total.
func (s *SpeedAlarm) trimLocked(now time.Time) {
	cutoff := now.Add(-s.cfg.Period)
	i := 0
	for i < len(s.queue) && s.queue[i].at.Before(cutoff) {
		s.total -= s.queue[i].value
		i++
	}
	if i > 0 {
		s.queue = s.queue[i:]
	}
}
