package core

import (
	"sync/atomic"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// PrimitiveID stably identifies a primitive in the engine's arena. Signal
// plane code never holds raw pointers across a rule boundary; the arena
// is the single owner of every live primitive, keyed by this id.
type PrimitiveID uint64

// ErrorReporter is the engine's error/warning sink. A bad trigger skips
// only the primitive that produced it rather than aborting the caller.
type ErrorReporter interface {
	Report(err error)
}

// Primitive is the uniform shape every dataflow node implements: an
// optional inbound port, one or two outbound ports, and a depender
// count that keeps it alive while other primitives (or Checkers) still
// reference it.
type Primitive interface {
	ID() PrimitiveID
	Type() string
	// Trigger handles an inbound signal carrying param and the current
	// SignalContext.
	Trigger(param any, ctx primitives.SignalContext)
	// Outbound is the primary outbound SignalSource, nil for primitives
	// (only EventGenerator) that emit no signal.
	Outbound() *SignalSource
	// Negative is the secondary outbound SignalSource used by
	// conditional primitives, or nil.
	Negative() *SignalSource
	// Target is the inbound SignalTarget every primitive owns — even
	// NonTargetable ones, which are wired to the synthetic ""
	// SourceEvent purely so the compiler can treat every node uniformly
	// during topological sort; NonTargetable
	// primitives simply never receive a live trigger through it.
	Target() *SignalTarget
	IncDepender()
	DecDepender()
	Dependers() int64
}

// Checkable is implemented by primitives that expose a synchronous value
// read for Checker.
type Checkable interface {
	Primitive
	Check(key any) (any, bool)
}

// NonTargetable is implemented by self-driven primitives (TimerSource)
// that accept no real inbound trigger.
type NonTargetable interface {
	Primitive
	nonTargetable()
}

// base is embedded by every concrete primitive. It implements the parts
// of Primitive that do not vary by kind.
type base struct {
	id       PrimitiveID
	kind     string
	outbound *SignalSource
	negative *SignalSource
	target   *SignalTarget
	depender atomic.Int64
	reporter ErrorReporter
}

func newBase(id PrimitiveID, kind string, reporter ErrorReporter) *base {
	b := &base{id: id, kind: kind, reporter: reporter}
	if kind != "EventGenerator" {
		b.outbound = NewSignalSource(reporter)
	}
	switch kind {
	case "Checker", "StringFilter", "IntegerFilter":
		b.negative = NewSignalSource(reporter)
	}
	return b
}

func (b *base) ID() PrimitiveID          { return b.id }
func (b *base) Type() string             { return b.kind }
func (b *base) Outbound() *SignalSource  { return b.outbound }
func (b *base) Negative() *SignalSource  { return b.negative }
func (b *base) Target() *SignalTarget    { return b.target }
func (b *base) IncDepender()             { b.depender.Add(1) }
func (b *base) DecDepender()             { b.depender.Add(-1) }
func (b *base) Dependers() int64         { return b.depender.Load() }

// warn reports a RuntimeWarning: "unknown key", "integer
// expected", and similar trigger-time problems that drop only the
// current signal rather than propagating an error to the caller.
func (b *base) warn(format string, args ...any) {
	if b.reporter != nil {
		b.reporter.Report(primitives.RuntimeWarningf(format, args...))
	}
}

// Arena owns every live primitive, keyed by PrimitiveID. It is the only
// place primitives are created or destroyed; SignalSource/SignalTarget
// never reach back into it.
type Arena struct {
	next       atomic.Uint64
	primitives map[PrimitiveID]Primitive
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{primitives: make(map[PrimitiveID]Primitive)}
}

// NextID allocates a fresh PrimitiveID.
func (a *Arena) NextID() PrimitiveID {
	return PrimitiveID(a.next.Add(1))
}

// Put registers p under its own ID.
func (a *Arena) Put(p Primitive) {
	a.primitives[p.ID()] = p
}

// Get looks up a primitive by id.
func (a *Arena) Get(id PrimitiveID) (Primitive, bool) {
	p, ok := a.primitives[id]
	return p, ok
}

// Remove deletes a primitive from the arena.
func (a *Arena) Remove(id PrimitiveID) {
	delete(a.primitives, id)
}

// Len reports how many primitives are currently live.
func (a *Arena) Len() int { return len(a.primitives) }

// All returns every live primitive; order is unspecified.
func (a *Arena) All() []Primitive {
	out := make([]Primitive, 0, len(a.primitives))
	for _, p := range a.primitives {
		out = append(out, p)
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
