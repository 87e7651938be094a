package core

import (
	"sync/atomic"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// BasicCounter is Checkable and non-terminal: it has no outbound signal,
// only a value observable via Check. Trigger semantics: +1 increments,
// -1 decrements, 0 resets. Lock-free: a single atomic field.
type BasicCounter struct {
	*base
	value atomic.Int64
}

// NewBasicCounter constructs a BasicCounter. Config is empty, so there is
// nothing to validate beyond what the rule compiler already checked.
func NewBasicCounter(id PrimitiveID, reporter ErrorReporter) *BasicCounter {
	c := &BasicCounter{base: newBase(id, "BasicCounter", reporter)}
	c.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	return c
}

func (c *BasicCounter) Trigger(param any, _ primitives.SignalContext) {
	n, ok := toInt(param)
	if !ok {
		c.warn("BasicCounter: expected integer parameter, got %T", param)
		return
	}
	if n == 0 {
		c.value.Store(0)
		return
	}
	c.value.Add(int64(n))
}

// Check implements Checkable: the key is unused (Checker always passes
// nil), the value is the counter's current reading.
func (c *BasicCounter) Check(_ any) (any, bool) {
	return c.value.Load(), true
}

// CountdownCounter fires its primary source exactly once per cycle when a
// non-zero trigger drives it to 0, then pauses its own inbound edges so
// upstream stops issuing; parameter 0 resets to StartFrom and resumes.
type CountdownCounter struct {
	*base
	cfg   primitives.CountdownCounterConfig
	value atomic.Int64
	fired atomic.Bool
}

// NewCountdownCounter constructs a CountdownCounter initialized to
// cfg.StartFrom.
func NewCountdownCounter(id PrimitiveID, cfg primitives.CountdownCounterConfig, reporter ErrorReporter) *CountdownCounter {
	c := &CountdownCounter{base: newBase(id, "CountdownCounter", reporter), cfg: cfg}
	c.value.Store(int64(cfg.StartFrom))
	c.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	return c
}

func (c *CountdownCounter) Trigger(param any, ctx primitives.SignalContext) {
	n, ok := toInt(param)
	if !ok {
		c.warn("CountdownCounter: expected integer parameter, got %T", param)
		return
	}
	if n == 0 {
		c.value.Store(int64(c.cfg.StartFrom))
		c.fired.Store(false)
		if c.target != nil {
			c.target.ResumeSelf()
		}
		return
	}

	nv := c.value.Add(-1)
	for nv < 0 {
		prev := nv + 1
		if c.value.CompareAndSwap(nv, 0) {
			nv = 0
			break
		}
		nv = c.value.Load()
		_ = prev
	}
	if nv == 0 && c.fired.CompareAndSwap(false, true) {
		if c.outbound != nil {
			c.outbound.Trigger(ctx)
		}
		if c.target != nil {
			c.target.PauseSelf()
		}
	}
}

// RepeatCounter decrements on every non-zero trigger; when it would hit
// zero it fires its primary source and resets to RestartAt. Parameter 0
// forces a silent reset.
type RepeatCounter struct {
	*base
	cfg   primitives.RepeatCounterConfig
	value atomic.Int64
}

// NewRepeatCounter constructs a RepeatCounter initialized to
// cfg.RestartAt.
func NewRepeatCounter(id PrimitiveID, cfg primitives.RepeatCounterConfig, reporter ErrorReporter) *RepeatCounter {
	c := &RepeatCounter{base: newBase(id, "RepeatCounter", reporter), cfg: cfg}
	c.value.Store(int64(cfg.RestartAt))
	c.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	return c
}

func (c *RepeatCounter) Trigger(param any, ctx primitives.SignalContext) {
	n, ok := toInt(param)
	if !ok {
		c.warn("RepeatCounter: expected integer parameter, got %T", param)
		return
	}
	if n == 0 {
		c.value.Store(int64(c.cfg.RestartAt))
		return
	}
	for {
		cur := c.value.Load()
		next := cur - 1
		if next <= 0 {
			if c.value.CompareAndSwap(cur, int64(c.cfg.RestartAt)) {
				if c.outbound != nil {
					c.outbound.Trigger(ctx)
				}
				return
			}
			continue
		}
		if c.value.CompareAndSwap(cur, next) {
			return
		}
	}
}
