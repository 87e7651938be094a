// Package cepengine is the embedding API for the complex event processing
// engine: a runtime graph of reusable stateful primitives (filters,
// collectors, counters, timers, accumulators, event generators) wired
// together by declaratively described rules. Callers construct an Engine
// bound to their own event ABI (a MetaEvent), compile rules into it with
// AddRuleDescriptions (or the YAML convenience decoder in ruletext.go),
// feed events in with ProcessEvent, and observe derived events through
// registered actors.
//
// This is the only package external callers import; internal/core,
// internal/primitives, internal/extensibility, and internal/production
// hold the implementation.
package cepengine

import (
	"github.com/flowlattice/cepengine/internal/core"
	"github.com/flowlattice/cepengine/internal/primitives"
)

// Event is the host-provided event ABI: a name plus integer-id-addressed
// properties. The engine never constructs a concrete Event itself; every
// instance is manufactured by a MetaEvent.
type Event = primitives.Event

// MetaEvent resolves property names to stable integer ids and
// manufactures fresh Event instances. Hosts supply one implementation per
// Engine.
type MetaEvent = primitives.MetaEvent

// RuleDescription, SourceEventDescription, PrimitiveDescription, and
// ConnectToDescription are the in-memory rule shape an external rule
// file parser produces (or that ruletext.go's YAML decoder builds).
type RuleDescription = primitives.RuleDescription
type SourceEventDescription = primitives.SourceEventDescription
type PrimitiveDescription = primitives.PrimitiveDescription
type ConnectToDescription = primitives.ConnectToDescription

// Sentinel error kinds a caller can errors.Is against: ErrParse,
// ErrValidation, and ErrCompile mark the three ways AddRuleDescriptions /
// AddRulesYAML can fail; RuntimeWarnings never surface as a returned
// error, only through the configured ErrorReporter.
var (
	ErrParse      = primitives.ErrParse
	ErrValidation = primitives.ErrValidation
	ErrCompile    = primitives.ErrCompile
)

// ErrorReporter receives ParseError/ValidationError/CompileError/
// RuntimeWarning occurrences that do not abort an API call outright —
// principally RuntimeWarnings, which spec policy swallows after logging.
type ErrorReporter = core.ErrorReporter

// MetricsSink receives best-effort engine hot-path counters. See
// internal/production.Metrics for the Prometheus-backed implementation.
type MetricsSink = core.MetricsSink

// Engine is the runtime hub of one independent CEP graph: the event
// dispatcher, the actor table, the rule compiler/remover, and the shared
// primitive arena. Multiple Engines may coexist in one process (spec.md
// §9); nothing about an Engine is process-global.
type Engine struct {
	rt *core.Engine
}

// Option configures an Engine at construction time.
type Option func(*core.Engine)

// WithClock overrides the default platform clock. Tests needing
// deterministic control over Accumulator/SpeedAlarm/Collector timeouts or
// TimerSource ticks should pass an extensibility.FakeClock.
func WithClock(c core.Clock) Option { return Option(core.WithClock(c)) }

// WithErrorReporter installs the sink that receives the errors raised while
// events are processed: RuntimeWarnings from primitives and signal-edge
// parameter evaluation failures. Errors from AddRuleDescriptions, AddRule
// and AddRulesYAML are returned, not reported. No reporter is installed by
// default, and such errors are then dropped; pass
// extensibility.DefaultErrorReporter to log them.
func WithErrorReporter(r ErrorReporter) Option { return Option(core.WithErrorReporter(r)) }

// WithRegistry replaces the engine's primitive-type registry, letting a
// host register additional primitive kinds before compiling any rule.
func WithRegistry(r *core.Registry) Option { return Option(core.WithRegistry(r)) }

// WithMetrics installs sink to receive engine hot-path counters. Passing
// nil (the default) disables metrics collection entirely; the core
// engine never imports a metrics client.
func WithMetrics(sink MetricsSink) Option { return Option(core.WithMetrics(sink)) }

// NewEngine constructs an Engine bound to meta, applying any Options.
func NewEngine(meta MetaEvent, opts ...Option) *Engine {
	copts := make([]core.Option, len(opts))
	for i, o := range opts {
		copts[i] = core.Option(o)
	}
	return &Engine{rt: core.NewEngine(meta, copts...)}
}

// AddRuleDescriptions compiles every rule in descs into the live graph,
// in order, sharing primitives with already-compiled rules wherever the
// sharing predicate allows. If any rule in the batch fails to validate or
// compile, every rule successfully added earlier in THIS call is rolled
// back (via DeleteRule) so the batch commits atomically; rules from
// earlier, separate calls are untouched.
func (e *Engine) AddRuleDescriptions(descs []RuleDescription) error {
	added := make([]string, 0, len(descs))
	for _, desc := range descs {
		if err := e.rt.AddRule(desc); err != nil {
			for i := len(added) - 1; i >= 0; i-- {
				_ = e.rt.DeleteRule(added[i])
			}
			return err
		}
		added = append(added, desc.RuleName)
	}
	return nil
}

// DeleteRule tears down everything RuleName exclusively owns. It is
// idempotent, and defers (pending-delete) a rule whose derived event
// still feeds another live rule until that rule is also deleted.
func (e *Engine) DeleteRule(name string) error {
	return e.rt.DeleteRule(name)
}

// ProcessEvent routes evt into the graph: its own dispatcher fires first,
// then the wildcard AllEvents source, then every registered actor — in
// that order, synchronously on the caller's goroutine, including any
// derived events an EventGenerator produces along the way.
func (e *Engine) ProcessEvent(evt Event) {
	e.rt.ProcessEvent(evt)
}

// RegisterActor appends fn to eventName's actor list, or prepends it when
// highPriority is true (defaults to false if omitted).
func (e *Engine) RegisterActor(eventName string, fn func(Event), highPriority ...bool) {
	hp := len(highPriority) > 0 && highPriority[0]
	e.rt.RegisterActor(eventName, hp, fn)
}

// UnregisterActor removes fn from eventName's actor list by identity.
func (e *Engine) UnregisterActor(eventName string, fn func(Event)) {
	e.rt.UnregisterActor(eventName, fn)
}

// RuleNames returns the names of every currently compiled rule.
func (e *Engine) RuleNames() []string { return e.rt.RuleNames() }

// PrimitiveCount reports how many live primitives the arena currently
// holds, across every compiled rule.
func (e *Engine) PrimitiveCount() int { return e.rt.PrimitiveCount() }

// PendingRuleCount reports how many rules are currently deferred in the
// pending-delete state.
func (e *Engine) PendingRuleCount() int { return e.rt.PendingRuleCount() }

// GraphSnapshot exports the current live primitive graph for offline
// inspection, visualization, or golden-file testing. See
// internal/production for DOT/JSON/YAML exporters built on this.
func (e *Engine) GraphSnapshot() core.GraphSnapshot { return e.rt.GraphSnapshot() }

// Core exposes the underlying *core.Engine for callers that need lower-
// level access (e.g. the production.EngineRegistry), without making the
// internal/core import public API.
func (e *Engine) Core() *core.Engine { return e.rt }
