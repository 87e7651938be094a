package production

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowlattice/cepengine/internal/core"
)

// Metrics is the Prometheus-backed core.MetricsSink, grounded on the
// retrieval pack's zen-watcher controller metrics rather than anything in
// the teacher (statechartx carries no metrics client). It is wired in
// only when an embedder opts in via cepengine.WithMetrics; the core
// engine only ever calls the three core.MetricsSink methods, never
// imports prometheus itself.
type Metrics struct {
	eventsProcessed  prometheus.Counter
	signalsFired     prometheus.Counter
	macroEvalErrors  prometheus.Counter
	livePrimitives   prometheus.GaugeFunc
	pendingDelete    prometheus.GaugeFunc
}

// NewMetrics creates a Metrics instance and registers its collectors on
// reg. engine supplies the live values for the two gauge-func metrics
// (live_primitives, rules_pending_delete) at scrape time, so they always
// reflect current state without the engine having to push updates.
func NewMetrics(reg prometheus.Registerer, engine *core.Engine) (*Metrics, error) {
	m := &Metrics{
		eventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cepengine",
			Name:      "events_processed_total",
			Help:      "Number of ProcessEvent invocations, including reentrant derived-event calls.",
		}),
		signalsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cepengine",
			Name:      "primitives_fired_total",
			Help:      "Number of signal edges successfully triggered.",
		}),
		macroEvalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cepengine",
			Name:      "macro_eval_errors_total",
			Help:      "Number of signal edges skipped because their parameter macro failed to evaluate.",
		}),
	}
	m.livePrimitives = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cepengine",
		Name:      "live_primitives",
		Help:      "Number of primitives currently live in the engine's arena.",
	}, func() float64 { return float64(engine.PrimitiveCount()) })
	m.pendingDelete = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cepengine",
		Name:      "rules_pending_delete",
		Help:      "Number of rules deferred in the pending-delete state.",
	}, func() float64 { return float64(engine.PendingRuleCount()) })

	collectors := []prometheus.Collector{m.eventsProcessed, m.signalsFired, m.macroEvalErrors, m.livePrimitives, m.pendingDelete}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EventProcessed implements core.MetricsSink.
func (m *Metrics) EventProcessed() { m.eventsProcessed.Inc() }

// SignalFired implements core.MetricsSink.
func (m *Metrics) SignalFired() { m.signalsFired.Inc() }

// MacroEvalError implements core.MetricsSink.
func (m *Metrics) MacroEvalError() { m.macroEvalErrors.Inc() }
