package core

// MetricsSink receives best-effort counters from the engine's hot path.
// The core package declares only this interface, stdlib-only; a concrete
// Prometheus-backed implementation lives in internal/production, wired in
// through WithMetrics so the runtime tier never imports a metrics client
// directly.
type MetricsSink interface {
	// EventProcessed is called once per Engine.ProcessEvent invocation,
	// including reentrant calls triggered by an EventGenerator.
	EventProcessed()
	// SignalFired is called once per target a SignalSource successfully
	// triggers (i.e. not paused, and macro evaluation did not error).
	SignalFired()
	// MacroEvalError is called once per edge a SignalSource skips because
	// its parameter macro failed to evaluate.
	MacroEvalError()
}

// WithMetrics installs sink to receive engine hot-path counters. Passing
// nil disables metrics collection (the default).
func WithMetrics(sink MetricsSink) Option {
	return func(e *Engine) {
		e.metrics = sink
		for _, src := range e.dispatcher {
			src.metrics = sink
		}
		if e.allEvents != nil {
			e.allEvents.metrics = sink
		}
	}
}

// PendingRuleCount reports how many rules are currently deferred in the
// pending-delete state (§4.3 Deletion step 4 of the rule remover).
func (e *Engine) PendingRuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pendingByEvent)
}
