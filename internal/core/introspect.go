package core

// PrimitiveSnapshot describes one live primitive for diagnostic export:
// its id, type name, and current depender count. It never carries
// internal state (queues, per-key maps) — only topology, per the
// diagnostic-not-durable scope of Engine.GraphSnapshot.
type PrimitiveSnapshot struct {
	ID        PrimitiveID
	Type      string
	Dependers int64
}

// NodeRef identifies one endpoint of a graph edge: either a primitive by
// id, or a dispatcher keyed by event name (IsEvent true, including the
// reserved "" synthetic source and "AllEvents").
type NodeRef struct {
	PrimitiveID PrimitiveID
	Event       string
	IsEvent     bool
}

// EdgeRef is one outbound connection in the live graph, from either a
// primitive's outbound/negative source or an event dispatcher, to a
// primitive's inbound target.
type EdgeRef struct {
	From     NodeRef
	Negative bool // true when From is a primitive's negative output
	To       PrimitiveID
	Paused   bool
}

// GraphSnapshot is the full diagnostic export of the live graph: every
// primitive, every edge, every event dispatcher name, and the rule
// bookkeeping tables. It is read-only and rebuilt fresh on each call —
// nothing in the engine holds a reference to it.
type GraphSnapshot struct {
	Primitives      []PrimitiveSnapshot
	Edges           []EdgeRef
	Dispatchers     []string // event names with a live SignalSource, including "" and AllEvents if present
	RuleToEvent     map[string]string
	EventGenerators map[string]PrimitiveID
	PendingRules    []string
}

// GraphSnapshot exports the current live primitive graph for the
// topology persisters and DOT visualizer in internal/production. This reflects what sharing has
// actually wired, not any one rule's static description.
func (e *Engine) GraphSnapshot() GraphSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := GraphSnapshot{
		RuleToEvent:     make(map[string]string, len(e.ruleToEvent)),
		EventGenerators: make(map[string]PrimitiveID, len(e.eventGenerators)),
	}
	for k, v := range e.ruleToEvent {
		snap.RuleToEvent[k] = v
	}
	for k, v := range e.eventGenerators {
		snap.EventGenerators[k] = v
	}
	for name := range e.dispatcher {
		snap.Dispatchers = append(snap.Dispatchers, name)
	}
	for name, rec := range e.rules {
		if rec.pending {
			snap.PendingRules = append(snap.PendingRules, name)
		}
	}

	for _, p := range e.arena.All() {
		snap.Primitives = append(snap.Primitives, PrimitiveSnapshot{
			ID:        p.ID(),
			Type:      p.Type(),
			Dependers: p.Dependers(),
		})
	}

	dispatcherName := make(map[*SignalSource]string, len(e.dispatcher))
	for name, src := range e.dispatcher {
		dispatcherName[src] = name
	}
	if e.allEvents != nil {
		dispatcherName[e.allEvents] = allEventsName
	}

	addEdgesFrom := func(src *SignalSource, ref NodeRef, negative bool) {
		if src == nil {
			return
		}
		for _, es := range src.EdgeSnapshots() {
			toID, ok := e.targetOwner[es.Target]
			if !ok {
				continue
			}
			snap.Edges = append(snap.Edges, EdgeRef{From: ref, Negative: negative, To: toID, Paused: es.Paused})
		}
	}

	for name, src := range e.dispatcher {
		addEdgesFrom(src, NodeRef{Event: name, IsEvent: true}, false)
	}
	if e.allEvents != nil {
		addEdgesFrom(e.allEvents, NodeRef{Event: allEventsName, IsEvent: true}, false)
	}
	for _, p := range e.arena.All() {
		addEdgesFrom(p.Outbound(), NodeRef{PrimitiveID: p.ID()}, false)
		addEdgesFrom(p.Negative(), NodeRef{PrimitiveID: p.ID()}, true)
	}

	return snap
}
