// Package core implements the runtime tier of the CEP engine: the signal
// plane, the ten primitive kinds, the primitive arena, the rule compiler,
// the rule remover, and the event dispatcher. Stdlib-only, mirroring the
// teacher's internal/core: pluggable collaborators are declared as
// interfaces here and implemented in internal/extensibility /
// internal/production.
package core

import (
	"sync"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// sourceEdge is one (target, per-edge parameter template, paused?) tuple
// of a SignalSource's ordered target list.
type sourceEdge struct {
	target *SignalTarget
	param  primitives.ParamTemplate
	paused bool
}

// SignalSource holds an ordered list of connected targets and fans a
// trigger out to them in insertion order. It raises two
// lifecycle callbacks to its owner: onFirstActive on the 0→1 transition
// of active (non-paused) targets, and onAllPaused on the reverse
// transition — letting e.g. TimerSource start/stop its ticker only while
// something is actually listening.
type SignalSource struct {
	mu            sync.Mutex
	edges         []*sourceEdge
	active        int
	onFirstActive func()
	onAllPaused   func()
	reporter      ErrorReporter
	metrics       MetricsSink
}

// NewSignalSource creates an unconnected SignalSource.
func NewSignalSource(reporter ErrorReporter) *SignalSource {
	return &SignalSource{reporter: reporter}
}

// SetCallbacks wires the owner's lifecycle hooks. Either may be nil.
func (s *SignalSource) SetCallbacks(onFirstActive, onAllPaused func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFirstActive = onFirstActive
	s.onAllPaused = onAllPaused
}

// Connect appends target to s with the given per-edge parameter template
// and wires the reciprocal SignalTarget link. New edges start active.
func (s *SignalSource) Connect(target *SignalTarget, param primitives.ParamTemplate) {
	s.mu.Lock()
	edge := &sourceEdge{target: target, param: param, paused: true}
	s.edges = append(s.edges, edge)
	transition := s.setActiveLocked(edge, true)
	cb := s.callbackForLocked(transition)
	s.mu.Unlock()

	target.connectedFrom(s)
	if cb != nil {
		cb()
	}
}

// Disconnect removes target from s (used by rule deletion). It is a
// no-op if target was never connected.
func (s *SignalSource) Disconnect(target *SignalTarget) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.edges {
		if e.target == target {
			idx = i
			break
		}
	}
	var transition string
	if idx >= 0 {
		if !s.edges[idx].paused {
			s.active--
			if s.active == 0 {
				transition = "allPaused"
			}
		}
		s.edges = append(s.edges[:idx:idx], s.edges[idx+1:]...)
	}
	cb := s.callbackForLocked(transition)
	s.mu.Unlock()

	if idx >= 0 {
		target.disconnectedFrom(s)
	}
	if cb != nil {
		cb()
	}
}

// Pause suppresses future triggers to target on this edge only, until
// Resume is called for the same (s, target) pair.
func (s *SignalSource) Pause(target *SignalTarget) {
	s.mu.Lock()
	var transition string
	for _, e := range s.edges {
		if e.target == target {
			transition = s.setActiveLocked(e, false)
			break
		}
	}
	cb := s.callbackForLocked(transition)
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Resume re-enables triggers to target on this edge.
func (s *SignalSource) Resume(target *SignalTarget) {
	s.mu.Lock()
	var transition string
	for _, e := range s.edges {
		if e.target == target {
			transition = s.setActiveLocked(e, true)
			break
		}
	}
	cb := s.callbackForLocked(transition)
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Trigger fans ctx out to every non-paused target in insertion order. A
// macro evaluation error is reported and that target alone is skipped —
// it never aborts the rest of the fan-out.
func (s *SignalSource) Trigger(ctx primitives.SignalContext) {
	s.mu.Lock()
	edges := make([]*sourceEdge, len(s.edges))
	copy(edges, s.edges)
	reporter := s.reporter
	metrics := s.metrics
	s.mu.Unlock()

	for _, e := range edges {
		if e.paused {
			continue
		}
		val, err := e.param.Evaluate(ctx)
		if err != nil {
			if reporter != nil {
				reporter.Report(err)
			}
			if metrics != nil {
				metrics.MacroEvalError()
			}
			continue
		}
		e.target.trigger(val, ctx)
		if metrics != nil {
			metrics.SignalFired()
		}
	}
}

// Targets returns a snapshot of the currently connected targets, in
// insertion order.
func (s *SignalSource) Targets() []*SignalTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*SignalTarget, len(s.edges))
	for i, e := range s.edges {
		out[i] = e.target
	}
	return out
}

// EdgeSnapshot describes one outbound edge for graph introspection:
// which target it feeds and whether it is currently paused.
type EdgeSnapshot struct {
	Target *SignalTarget
	Paused bool
}

// EdgeSnapshots returns a snapshot of every outbound edge, in insertion
// order, with its current pause state — used by Engine.GraphSnapshot so
// a visualizer can render paused edges distinctly.
func (s *SignalSource) EdgeSnapshots() []EdgeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EdgeSnapshot, len(s.edges))
	for i, e := range s.edges {
		out[i] = EdgeSnapshot{Target: e.target, Paused: e.paused}
	}
	return out
}

// EdgeParam returns the compiled parameter template for the edge to
// target, if s is connected to it.
func (s *SignalSource) EdgeParam(target *SignalTarget) (primitives.ParamTemplate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.target == target {
			return e.param, true
		}
	}
	return primitives.ParamTemplate{}, false
}

// setActiveLocked must be called with s.mu held. It flips edge's paused
// flag (no-op if already in the requested state) and reports which
// lifecycle transition, if any, just occurred.
func (s *SignalSource) setActiveLocked(edge *sourceEdge, active bool) string {
	wasAnyActive := s.active > 0
	if active && edge.paused {
		edge.paused = false
		s.active++
	} else if !active && !edge.paused {
		edge.paused = true
		s.active--
	}
	nowAnyActive := s.active > 0
	switch {
	case !wasAnyActive && nowAnyActive:
		return "first"
	case wasAnyActive && !nowAnyActive:
		return "allPaused"
	default:
		return ""
	}
}

func (s *SignalSource) callbackForLocked(transition string) func() {
	switch transition {
	case "first":
		return s.onFirstActive
	case "allPaused":
		return s.onAllPaused
	default:
		return nil
	}
}

// SignalTarget holds the list of sources currently feeding it (for
// reverse traversal during rule deletion) and the single trigger callback
// provided by the owning primitive.
type SignalTarget struct {
	mu        sync.Mutex
	sources   []*SignalSource
	triggerFn func(param any, ctx primitives.SignalContext)
}

// NewSignalTarget creates a SignalTarget that dispatches to fn.
func NewSignalTarget(fn func(param any, ctx primitives.SignalContext)) *SignalTarget {
	return &SignalTarget{triggerFn: fn}
}

func (t *SignalTarget) connectedFrom(s *SignalSource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = append(t.sources, s)
}

func (t *SignalTarget) disconnectedFrom(s *SignalSource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, src := range t.sources {
		if src == s {
			t.sources = append(t.sources[:i:i], t.sources[i+1:]...)
			return
		}
	}
}

func (t *SignalTarget) trigger(param any, ctx primitives.SignalContext) {
	if t.triggerFn != nil {
		t.triggerFn(param, ctx)
	}
}

// Sources returns a snapshot of the sources currently connected to t.
func (t *SignalTarget) Sources() []*SignalSource {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*SignalSource, len(t.sources))
	copy(out, t.sources)
	return out
}

// PauseSelf asks every source feeding t to suppress this edge. Used by
// CountdownCounter after it fires, and propagated upward by TimerSource.
func (t *SignalTarget) PauseSelf() {
	for _, s := range t.Sources() {
		s.Pause(t)
	}
}

// ResumeSelf re-enables every edge feeding t.
func (t *SignalTarget) ResumeSelf() {
	for _, s := range t.Sources() {
		s.Resume(t)
	}
}
