package core

import (
	"fmt"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// resolvedEdge is one inbound connection a node is waiting to receive,
// with its upstream SignalSource already settled.
type resolvedEdge struct {
	source  *SignalSource
	param   primitives.ParamTemplate
	fromKey string // the upstream node's local name (or "" for source events), for diagnostics
}

// compileState carries the bookkeeping a single AddRule call accumulates.
// It is discarded once the rule either fully commits or rolls back.
type compileState struct {
	desc           primitives.RuleDescription
	primitivesByName map[string]primitives.PrimitiveDescription
	sourceEvents   map[string]primitives.SourceEventDescription // keyed by EventName
	configs        map[string]any                                // local name -> parsed config
	factories      map[string]PrimitiveFactory                   // local name -> factory
	resolvedSource map[string]*SignalSource                      // resolved node (source-event or primitive outbound) -> its *outbound* source, keyed by local/event name
	resolvedNeg    map[string]*SignalSource                      // primitive local name -> negative source, if any
	builtIDs       map[string]PrimitiveID                        // local name -> primitive id (only for ones built/reused during THIS call)
	newlyCreated   []PrimitiveID                                 // ids actually allocated (not reused) during this call, for rollback
	checkables     map[string]Checkable
}

// AddRule compiles desc into the live graph, sharing primitives with
// already-compiled rules wherever the sharing predicate allows. On any
// failure the rule is rolled back as if it had never been added.
func (e *Engine) AddRule(desc primitives.RuleDescription) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[desc.RuleName]; exists {
		return primitives.ValidationErrorf("rule %q already exists", desc.RuleName)
	}

	st, err := e.validateAndPrepare(desc)
	if err != nil {
		return err
	}

	order, err := e.topoSort(st)
	if err != nil {
		e.rollback(st)
		return err
	}

	var derivedEvent string
	eventGenIDs := map[string]PrimitiveID{}

	for _, name := range order {
		if se, ok := st.sourceEvents[name]; ok {
			st.resolvedSource[name] = e.dispatcherFor(se.EventName)
			continue
		}

		pd := st.primitivesByName[name]
		factory := st.factories[name]
		config := st.configs[name]

		edges, err := e.gatherInbound(st, name)
		if err != nil {
			e.rollback(st)
			return err
		}

		var p Primitive
		if shared, ok := e.findShareable(pd.Type, config, edges); ok {
			p = shared
		} else {
			bc := &BuildContext{Clock: e.clock, Reporter: e.reporter, Meta: e.meta, Sink: e, CheckTargets: st.checkables}
			id := e.arena.NextID()
			built, err := factory.New(id, config, bc)
			if err != nil {
				e.rollback(st)
				return primitives.CompileErrorf("rule %q: primitive %q: %v", desc.RuleName, name, err)
			}
			e.arena.Put(built)
			e.primitiveConfigs[id] = config
			if built.Outbound() != nil {
				e.sourceOwner[built.Outbound()] = id
				built.Outbound().metrics = e.metrics
			}
			if built.Negative() != nil {
				e.sourceOwner[built.Negative()] = id
				built.Negative().metrics = e.metrics
			}
			if built.Target() != nil {
				e.targetOwner[built.Target()] = id
			}
			for _, edge := range edges {
				edge.source.Connect(built.Target(), edge.param)
				if ownerID, ok := e.sourceOwner[edge.source]; ok {
					if owner, ok := e.arena.Get(ownerID); ok {
						owner.IncDepender()
					}
				}
			}
			if chk, ok := built.(*Checker); ok {
				chk.checkTarget.IncDepender()
				e.checkerTargets[id] = chk.checkTarget.ID()
			}
			st.newlyCreated = append(st.newlyCreated, id)
			p = built
		}

		st.builtIDs[name] = p.ID()
		st.resolvedSource[name] = p.Outbound()
		if p.Negative() != nil {
			st.resolvedNeg[name] = p.Negative()
		}
		if chk, ok := p.(Checkable); ok {
			st.checkables[name] = chk
		}
		if pd.Type == "EventGenerator" {
			cfg := config.(primitives.EventGeneratorConfig)
			derivedEvent = cfg.NewEventName
			eventGenIDs[cfg.NewEventName] = p.ID()
		}
	}

	rec := &ruleRecord{name: desc.RuleName, derivedEvent: derivedEvent, nodeIDs: st.builtIDs}
	e.rules[desc.RuleName] = rec
	if derivedEvent != "" {
		e.ruleToEvent[desc.RuleName] = derivedEvent
		e.eventGenerators[derivedEvent] = eventGenIDs[derivedEvent]
	}
	return nil
}

// validateAndPrepare runs step 1 (structural validation plus
// everything that needs the registry and MetaEvent: known types, config
// parsing, macro compilation, and the "every non-NonTargetable primitive
// has an inbound edge" rule). Step 2, the synthetic "" SourceEvent for
// NonTargetable nodes, is added later by topoSort and gatherInbound.
func (e *Engine) validateAndPrepare(desc primitives.RuleDescription) (*compileState, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	st := &compileState{
		desc:             desc,
		primitivesByName: make(map[string]primitives.PrimitiveDescription, len(desc.Primitives)),
		sourceEvents:     make(map[string]primitives.SourceEventDescription, len(desc.SourceEvents)),
		configs:          make(map[string]any, len(desc.Primitives)),
		factories:        make(map[string]PrimitiveFactory, len(desc.Primitives)),
		resolvedSource:   make(map[string]*SignalSource),
		resolvedNeg:      make(map[string]*SignalSource),
		builtIDs:         make(map[string]PrimitiveID),
		checkables:       make(map[string]Checkable),
	}

	hasInbound := make(map[string]bool, len(desc.Primitives))
	addEdges := func(edges map[string]primitives.ConnectToDescription) {
		for target := range edges {
			hasInbound[target] = true
		}
	}

	for _, se := range desc.SourceEvents {
		st.sourceEvents[se.EventName] = se
		addEdges(se.ConnectTo)
	}

	for _, pd := range desc.Primitives {
		factory, ok := e.registry.Lookup(pd.Type)
		if !ok {
			return nil, primitives.ValidationErrorf("rule %q: unknown primitive type %q", desc.RuleName, pd.Type)
		}
		config, err := factory.ParseConfig(pd.Parameters)
		if err != nil {
			return nil, err
		}
		st.primitivesByName[pd.Name] = pd
		st.configs[pd.Name] = config
		st.factories[pd.Name] = factory
		addEdges(pd.ConnectTo)
	}

	for _, pd := range desc.Primitives {
		factory := st.factories[pd.Name]
		if !factory.NonTargetable && !hasInbound[pd.Name] {
			return nil, primitives.ValidationErrorf("rule %q: primitive %q has no inbound edge", desc.RuleName, pd.Name)
		}
	}

	// Validate every ConnectTo parameter macro compiles, and every
	// Checker's CheckTarget resolves to a name that is itself Checkable.
	for _, se := range desc.SourceEvents {
		if err := validateConnectToMacros(desc.RuleName, fmt.Sprintf("SourceEvent %q", se.EventName), se.ConnectTo, e.meta); err != nil {
			return nil, err
		}
	}
	for _, pd := range desc.Primitives {
		if err := validateConnectToMacros(desc.RuleName, pd.Name, pd.ConnectTo, e.meta); err != nil {
			return nil, err
		}
		if pd.Type == "Checker" {
			cfg := st.configs[pd.Name].(primitives.CheckerConfig)
			targetDesc, ok := st.primitivesByName[cfg.CheckTarget]
			if !ok {
				return nil, primitives.ValidationErrorf("rule %q: Checker %q CheckTarget %q is not a primitive in this rule", desc.RuleName, pd.Name, cfg.CheckTarget)
			}
			if !st.factories[targetDesc.Name].Checkable {
				return nil, primitives.ValidationErrorf("rule %q: Checker %q CheckTarget %q (%s) is not Checkable", desc.RuleName, pd.Name, cfg.CheckTarget, targetDesc.Type)
			}
		}
	}

	return st, nil
}

func validateConnectToMacros(ruleName, from string, edges map[string]primitives.ConnectToDescription, meta primitives.MetaEvent) error {
	for target, ctd := range edges {
		if ctd.SignalParameter == nil {
			continue
		}
		if _, err := primitives.CompileParamTemplate(ctd.SignalParameter, meta); err != nil {
			return primitives.ParseErrorf("rule %q: edge %s -> %s: %v", ruleName, from, target, err)
		}
	}
	return nil
}

// topoSort orders a rule's SourceEvent and primitive nodes so that every
// node is visited only after everything it receives input from:
// ConnectTo edges, plus an extra CheckTarget -> Checker edge so the
// checked primitive is always settled first.
func (e *Engine) topoSort(st *compileState) ([]string, error) {
	adj := make(map[string][]string)
	indeg := make(map[string]int)

	addNode := func(name string) {
		if _, ok := indeg[name]; !ok {
			indeg[name] = 0
		}
	}
	addEdge := func(from, to string) {
		adj[from] = append(adj[from], to)
		indeg[to]++
	}

	usesSynthetic := false
	for name, factory := range st.factories {
		addNode(name)
		if factory.NonTargetable {
			usesSynthetic = true
		}
	}
	for eventName := range st.sourceEvents {
		addNode(eventName)
	}
	if usesSynthetic {
		addNode(syntheticSourceName)
	}

	for eventName, se := range st.sourceEvents {
		for target := range se.ConnectTo {
			addEdge(eventName, target)
		}
	}
	for name, pd := range st.primitivesByName {
		for target := range pd.ConnectTo {
			addEdge(name, target)
		}
		if st.factories[name].NonTargetable {
			addEdge(syntheticSourceName, name)
		}
		if pd.Type == "Checker" {
			cfg := st.configs[name].(primitives.CheckerConfig)
			addEdge(cfg.CheckTarget, name)
		}
	}

	var queue []string
	for n, d := range indeg {
		if d == 0 {
			queue = append(queue, n)
		}
	}
	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, m := range adj[n] {
			indeg[m]--
			if indeg[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	if len(order) != len(indeg) {
		return nil, primitives.CompileErrorf("rule %q: cycle detected among primitives", st.desc.RuleName)
	}
	return order, nil
}

// gatherInbound resolves every already-settled upstream source feeding
// node (by local name); in topological order this is guaranteed safe.
func (e *Engine) gatherInbound(st *compileState, node string) ([]resolvedEdge, error) {
	var edges []resolvedEdge

	collect := func(fromKey string, connectTo map[string]primitives.ConnectToDescription, upstreamPrimary, upstreamNegative *SignalSource) error {
		ctd, ok := connectTo[node]
		if !ok {
			return nil
		}
		src := upstreamPrimary
		if ctd.TriggerOnNegative {
			if upstreamNegative == nil {
				return primitives.ValidationErrorf("rule %q: %s has no negative output but %s connects to its negative branch", st.desc.RuleName, fromKey, node)
			}
			src = upstreamNegative
		}
		tmpl, err := primitives.CompileParamTemplate(ctd.SignalParameter, e.meta)
		if err != nil {
			return err
		}
		edges = append(edges, resolvedEdge{source: src, param: tmpl, fromKey: fromKey})
		return nil
	}

	for eventName, se := range st.sourceEvents {
		if err := collect(eventName, se.ConnectTo, st.resolvedSource[eventName], nil); err != nil {
			return nil, err
		}
	}
	for name, pd := range st.primitivesByName {
		if name == node {
			continue
		}
		if err := collect(name, pd.ConnectTo, st.resolvedSource[name], st.resolvedNeg[name]); err != nil {
			return nil, err
		}
	}

	if st.factories[node].NonTargetable {
		edges = append(edges, resolvedEdge{
			source:  e.dispatcherFor(syntheticSourceName),
			param:   primitives.ParamTemplate{},
			fromKey: syntheticSourceName,
		})
	}
	return edges, nil
}

// findShareable implements the sharing detector: same type, same config, and an identical set of inbound
// sources each carrying an equal per-edge parameter template.
func (e *Engine) findShareable(typeName string, config any, edges []resolvedEdge) (Primitive, bool) {
	if len(edges) == 0 {
		return nil, false
	}
	factory, _ := e.registry.Lookup(typeName)

	first := edges[0].source
	for _, candTarget := range first.Targets() {
		candID, ok := e.targetOwner[candTarget]
		if !ok {
			continue
		}
		cand, ok := e.arena.Get(candID)
		if !ok || cand.Type() != typeName {
			continue
		}
		if !factory.ConfigEqual(e.primitiveConfigs[candID], config) {
			continue
		}
		if e.inboundMatches(candTarget, edges) {
			return cand, true
		}
	}
	return nil, false
}

func (e *Engine) inboundMatches(candTarget *SignalTarget, edges []resolvedEdge) bool {
	candSources := candTarget.Sources()
	if len(candSources) != len(edges) {
		return false
	}
	used := make([]bool, len(candSources))
	for _, edge := range edges {
		found := false
		for i, cs := range candSources {
			if used[i] || cs != edge.source {
				continue
			}
			tmpl, ok := cs.EdgeParam(candTarget)
			if !ok || !tmpl.Equal(edge.param) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// rollback undoes any primitives created during a failed AddRule, using
// the same removal mechanics as DeleteRule.
func (e *Engine) rollback(st *compileState) {
	for _, id := range st.newlyCreated {
		e.destroyPrimitive(id)
	}
}
