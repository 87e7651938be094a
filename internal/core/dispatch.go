package core

import (
	"reflect"
	"sync"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// allEventsName is the reserved wildcard source-event name.
const allEventsName = "AllEvents"

// syntheticSourceName is the reserved event name the compiler wires
// NonTargetable primitives to, purely for uniform topological-sort
// bookkeeping. Hosts must never use it.
const syntheticSourceName = ""

type actorEntry struct {
	fn  func(primitives.Event)
	ptr uintptr // identity of fn, for UnregisterActor; reflect.ValueOf(fn).Pointer()
}

// ruleRecord is everything the engine remembers about a compiled rule so
// DeleteRule can find, and eventually tear down, everything it touches.
type ruleRecord struct {
	name         string
	derivedEvent string // ruleToEvent[name]; "" if the rule has no EventGenerator
	nodeIDs      map[string]PrimitiveID
	pending      bool
}

// Engine is the runtime hub: the event
// dispatcher map, the actor table, the rule bookkeeping, and the shared
// primitive arena. It implements EventSink so every EventGenerator can
// hand a derived event straight back to ProcessEvent.
type Engine struct {
	mu sync.RWMutex

	arena    *Arena
	registry *Registry
	meta     primitives.MetaEvent
	clock    Clock
	reporter ErrorReporter
	metrics  MetricsSink

	dispatcher map[string]*SignalSource
	allEvents  *SignalSource
	actors     map[string][]actorEntry

	ruleToEvent     map[string]string
	eventGenerators map[string]PrimitiveID
	rules           map[string]*ruleRecord
	pendingByEvent  map[string]string

	sourceOwner      map[*SignalSource]PrimitiveID
	targetOwner      map[*SignalTarget]PrimitiveID
	primitiveConfigs map[PrimitiveID]any
	checkerTargets   map[PrimitiveID]PrimitiveID // checker id -> its CheckTarget's id
}

// NewEngine constructs an Engine bound to meta, applying any Options.
func NewEngine(meta primitives.MetaEvent, opts ...Option) *Engine {
	e := &Engine{
		arena:           NewArena(),
		registry:        NewRegistry(),
		meta:            meta,
		clock:           RealClock(),
		dispatcher:      make(map[string]*SignalSource),
		actors:          make(map[string][]actorEntry),
		ruleToEvent:     make(map[string]string),
		eventGenerators: make(map[string]PrimitiveID),
		rules:           make(map[string]*ruleRecord),
		pendingByEvent:  make(map[string]string),
		sourceOwner:      make(map[*SignalSource]PrimitiveID),
		targetOwner:      make(map[*SignalTarget]PrimitiveID),
		primitiveConfigs: make(map[PrimitiveID]any),
		checkerTargets:   make(map[PrimitiveID]PrimitiveID),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// dispatcherFor returns the SignalSource bound to eventName, creating it
// (with no targets yet) on first reference. The reserved AllEvents name
// resolves to the wildcard source that fires for every event.
func (e *Engine) dispatcherFor(eventName string) *SignalSource {
	if eventName == allEventsName {
		e.ensureAllEventsLocked()
		return e.allEvents
	}
	if s, ok := e.dispatcher[eventName]; ok {
		return s
	}
	s := NewSignalSource(e.reporter)
	s.metrics = e.metrics
	e.dispatcher[eventName] = s
	return s
}

// ProcessEvent routes evt into the graph: its own dispatcher
// fires first, then the wildcard AllEvents source, then registered actors
// — in that order, on the caller's goroutine, synchronously including any
// derived events produced along the way.
func (e *Engine) ProcessEvent(evt primitives.Event) {
	e.mu.RLock()
	src, hasSrc := e.dispatcher[evt.Name()]
	all := e.allEvents
	actors := append([]actorEntry(nil), e.actors[evt.Name()]...)
	var wildcard []actorEntry
	if evt.Name() != allEventsName {
		wildcard = append([]actorEntry(nil), e.actors[allEventsName]...)
	}
	metrics := e.metrics
	e.mu.RUnlock()

	if metrics != nil {
		metrics.EventProcessed()
	}

	ctx := primitives.EventContext(evt)
	if hasSrc {
		src.Trigger(ctx)
	}
	if all != nil {
		all.Trigger(ctx)
	}
	for _, a := range actors {
		a.fn(evt)
	}
	for _, a := range wildcard {
		a.fn(evt)
	}
}

// RegisterActor appends fn to eventName's actor list, or prepends it when
// highPriority is true.
func (e *Engine) RegisterActor(eventName string, highPriority bool, fn func(primitives.Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := actorEntry{fn: fn, ptr: reflect.ValueOf(fn).Pointer()}
	if highPriority {
		e.actors[eventName] = append([]actorEntry{entry}, e.actors[eventName]...)
	} else {
		e.actors[eventName] = append(e.actors[eventName], entry)
	}
	if eventName == allEventsName {
		e.ensureAllEventsLocked()
	}
}

// UnregisterActor removes the first actor registered for eventName whose
// function identity matches fn. It is a no-op if none match.
func (e *Engine) UnregisterActor(eventName string, fn func(primitives.Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ptr := reflect.ValueOf(fn).Pointer()
	list := e.actors[eventName]
	for i, entry := range list {
		if entry.ptr == ptr {
			e.actors[eventName] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// ensureAllEventsLocked must be called with e.mu held. It lazily creates
// the wildcard dispatcher the first time it is needed.
func (e *Engine) ensureAllEventsLocked() {
	if e.allEvents == nil {
		e.allEvents = NewSignalSource(e.reporter)
		e.allEvents.metrics = e.metrics
	}
}

// RuleNames returns the names of every currently compiled rule.
func (e *Engine) RuleNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.rules))
	for name := range e.rules {
		out = append(out, name)
	}
	return out
}

// PrimitiveCount reports how many live primitives the arena currently
// holds, across every compiled rule.
func (e *Engine) PrimitiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.arena.Len()
}
