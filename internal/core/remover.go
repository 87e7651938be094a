package core

// DeleteRule tears down everything rule name exclusively owns"). It is idempotent: deleting an unknown or
// already-deleted rule is a no-op. A rule whose derived event still feeds
// other live rules is left in place as pending; it finishes automatically
// once those other rules stop needing it.
func (e *Engine) DeleteRule(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteRuleLocked(name)
}

func (e *Engine) deleteRuleLocked(name string) error {
	rec, ok := e.rules[name]
	if !ok {
		return nil
	}

	if rec.derivedEvent != "" {
		delete(e.actors, rec.derivedEvent)
	}

	candidates := e.backwardReach(rec)
	deletable := e.fixpointDeletable(candidates)

	if rec.derivedEvent != "" {
		if disp, ok := e.dispatcher[rec.derivedEvent]; ok {
			for _, tgt := range disp.Targets() {
				ownerID, ok := e.targetOwner[tgt]
				if !ok || !deletable[ownerID] {
					rec.pending = true
					e.pendingByEvent[rec.derivedEvent] = name
					return nil
				}
			}
		}
	}

	touchedEvents := map[string]bool{}
	for id, ok := range deletable {
		if !ok {
			continue
		}
		e.destroyPrimitive(id)
	}
	for eventName := range e.dispatcher {
		touchedEvents[eventName] = true
	}

	delete(e.rules, name)
	delete(e.ruleToEvent, name)
	if rec.derivedEvent != "" {
		delete(e.eventGenerators, rec.derivedEvent)
		delete(e.pendingByEvent, rec.derivedEvent)
	}

	e.finishPendingRules(touchedEvents)
	for eventName, disp := range e.dispatcher {
		if _, pending := e.pendingByEvent[eventName]; !pending && len(disp.Targets()) == 0 {
			delete(e.dispatcher, eventName)
		}
	}
	return nil
}

// backwardReach walks backward from rule's own nodes along inbound edges, collecting every primitive that could be
// torn down as part of removing this rule.
func (e *Engine) backwardReach(rec *ruleRecord) map[PrimitiveID]bool {
	reach := make(map[PrimitiveID]bool, len(rec.nodeIDs))
	var queue []PrimitiveID
	for _, id := range rec.nodeIDs {
		if !reach[id] {
			reach[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p, ok := e.arena.Get(id)
		if !ok || p.Target() == nil {
			continue
		}
		for _, src := range p.Target().Sources() {
			ownerID, ok := e.sourceOwner[src]
			if !ok {
				continue // dispatcher/event-level source: rule boundary, not a primitive
			}
			if !reach[ownerID] {
				reach[ownerID] = true
				queue = append(queue, ownerID)
			}
		}
	}
	return reach
}

// fixpointDeletable narrows reach down to the primitives whose every
// dependent (downstream signal target, or referencing Checker) is itself
// within the deletable set — i.e., nothing outside this removal needs it
// to keep existing.
func (e *Engine) fixpointDeletable(reach map[PrimitiveID]bool) map[PrimitiveID]bool {
	deletable := make(map[PrimitiveID]bool, len(reach))
	for id := range reach {
		deletable[id] = true
	}

	changed := true
	for changed {
		changed = false
		for id := range reach {
			if !deletable[id] {
				continue
			}
			if !e.allDependentsDeletable(id, deletable) {
				deletable[id] = false
				changed = true
			}
		}
	}
	return deletable
}

func (e *Engine) allDependentsDeletable(id PrimitiveID, deletable map[PrimitiveID]bool) bool {
	p, ok := e.arena.Get(id)
	if !ok {
		return true
	}
	check := func(src *SignalSource) bool {
		if src == nil {
			return true
		}
		for _, tgt := range src.Targets() {
			ownerID, ok := e.targetOwner[tgt]
			if !ok || !deletable[ownerID] {
				return false
			}
		}
		return true
	}
	if !check(p.Outbound()) || !check(p.Negative()) {
		return false
	}
	for checkerID, targetID := range e.checkerTargets {
		if targetID == id && !deletable[checkerID] {
			return false
		}
	}
	return true
}

// destroyPrimitive disconnects id from every inbound source, releases its
// Checkable dependee reference (if it is a Checker), stops any owned
// timer resource (via the ordinary all-paused transition once its last
// target is disconnected), and removes it from the arena.
func (e *Engine) destroyPrimitive(id PrimitiveID) {
	p, ok := e.arena.Get(id)
	if !ok {
		return
	}
	if p.Target() != nil {
		for _, src := range p.Target().Sources() {
			src.Disconnect(p.Target())
			if ownerID, ok := e.sourceOwner[src]; ok {
				if owner, ok := e.arena.Get(ownerID); ok {
					owner.DecDepender()
				}
			}
		}
	}
	if chk, ok := p.(*Checker); ok {
		chk.checkTarget.DecDepender()
		delete(e.checkerTargets, id)
	}
	if p.Outbound() != nil {
		delete(e.sourceOwner, p.Outbound())
	}
	if p.Negative() != nil {
		delete(e.sourceOwner, p.Negative())
	}
	if p.Target() != nil {
		delete(e.targetOwner, p.Target())
	}
	delete(e.primitiveConfigs, id)
	e.arena.Remove(id)
}

// finishPendingRules implements step 6: any dispatcher among touchedEvents
// whose target set is now empty and which has no registered actors was
// kept alive only for a previously pending-delete rule; recurse to finish
// tearing it down.
func (e *Engine) finishPendingRules(touchedEvents map[string]bool) {
	for eventName := range touchedEvents {
		ruleName, ok := e.pendingByEvent[eventName]
		if !ok {
			continue
		}
		disp, ok := e.dispatcher[eventName]
		if !ok {
			continue
		}
		if len(disp.Targets()) > 0 || len(e.actors[eventName]) > 0 {
			continue
		}
		delete(e.pendingByEvent, eventName)
		e.deleteRuleLocked(ruleName)
	}
}

