package core

import (
	"sync"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// EventSink receives a freshly synthesized event. The engine dispatcher
// implements it; EventGenerator depends on the interface only, so the
// primitive library never imports the dispatcher package directly.
type EventSink interface {
	ProcessEvent(evt primitives.Event)
}

// EventGenerator is terminal and never shared: it
// synthesizes a new named event from the incoming context, sets each
// configured property, and hands the result to the engine dispatcher.
// It emits no outbound signal.
type EventGenerator struct {
	*base
	cfg        primitives.EventGeneratorConfig
	properties map[string]primitives.ParamTemplate
	meta       primitives.MetaEvent
	sink       EventSink
}

// NewEventGenerator constructs an EventGenerator. properties is the
// rule compiler's resolution of cfg.Properties into ParamTemplates
// (macros compiled against meta).
func NewEventGenerator(id PrimitiveID, cfg primitives.EventGeneratorConfig, properties map[string]primitives.ParamTemplate, meta primitives.MetaEvent, sink EventSink, reporter ErrorReporter) *EventGenerator {
	g := &EventGenerator{
		base:       newBase(id, "EventGenerator", reporter),
		cfg:        cfg,
		properties: properties,
		meta:       meta,
		sink:       sink,
	}
	g.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { g.Trigger(param, ctx) })
	return g
}

func (g *EventGenerator) Trigger(param any, ctx primitives.SignalContext) {
	evt := g.meta.NewInstance(g.cfg.NewEventName)
	for name, tmpl := range g.properties {
		val, err := tmpl.Evaluate(ctx)
		if err != nil {
			g.warn("EventGenerator: property %q: %v", name, err)
			continue
		}
		id := g.meta.PropertyID(name)
		if id < 0 {
			g.warn("EventGenerator: unknown property %q", name)
			continue
		}
		evt.Set(id, val)
	}
	if g.sink != nil {
		g.sink.ProcessEvent(evt)
	}
}

// TimerSource is NonTargetable and self-driven: it fires its primary
// source on every tick of a periodic timer, started lazily on first
// target activation and stopped once every target is paused, so an
// otherwise-unused rule costs nothing at runtime.
type TimerSource struct {
	*base
	cfg      primitives.TimerSourceConfig
	interval Clock
	mu       sync.Mutex
	ticker   Ticker
	stop     chan struct{}
}

// NewTimerSource constructs a TimerSource driven by clock. The returned
// primitive's Outbound source has its lifecycle callbacks already wired;
// the caller must still Connect it into the graph to receive ticks.
func NewTimerSource(id PrimitiveID, cfg primitives.TimerSourceConfig, clock Clock, reporter ErrorReporter) *TimerSource {
	t := &TimerSource{base: newBase(id, "TimerSource", reporter), cfg: cfg, interval: clock}
	t.outbound = NewSignalSource(reporter)
	t.target = NewSignalTarget(nil)
	t.outbound.SetCallbacks(t.start, t.stopTicking)
	return t
}

func (t *TimerSource) nonTargetable() {}

func (t *TimerSource) Trigger(param any, ctx primitives.SignalContext) {}

func (t *TimerSource) start() {
	d, ok := t.cfg.Frequency.Duration()
	if !ok {
		t.warn("TimerSource: unknown frequency %q", t.cfg.Frequency)
		return
	}
	t.mu.Lock()
	if t.ticker != nil {
		t.mu.Unlock()
		return
	}
	ticker := t.interval.NewTicker(d)
	stop := make(chan struct{})
	t.ticker = ticker
	t.stop = stop
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C():
				t.outbound.Trigger(primitives.EventContext(nil))
			case <-stop:
				return
			}
		}
	}()
}

func (t *TimerSource) stopTicking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.stop)
	t.ticker = nil
	t.stop = nil
}
