package core

import (
	"sync"
	"time"

	"github.com/flowlattice/cepengine/internal/primitives"
)

type collectorSlot struct {
	triggered bool
	ctx       primitives.SignalContext
	deadline  time.Time
}

// collectorParam is the decoded (source_index, cancel?) signal parameter
// shared by Collector and CollectorInOrder.
type collectorParam struct {
	index  int
	cancel bool
}

func decodeCollectorParam(param any) (collectorParam, bool) {
	switch v := param.(type) {
	case []any:
		if len(v) == 0 {
			return collectorParam{}, false
		}
		idx, ok := toInt(v[0])
		if !ok {
			return collectorParam{}, false
		}
		cancel := false
		if len(v) > 1 {
			cancel, _ = v[1].(bool)
		}
		return collectorParam{index: idx, cancel: cancel}, true
	case int:
		return collectorParam{index: v}, true
	case float64:
		return collectorParam{index: int(v)}, true
	default:
		return collectorParam{}, false
	}
}

// Collector joins SourceCount independent inputs, identified by index, into
// a single ordered-by-index emission once every slot has fired.
// Slot timeouts expire lazily, re-evaluated on every subsequent trigger.
type Collector struct {
	*base
	clock   Clock
	cfg     primitives.CollectorConfig
	mu      sync.Mutex
	slots   []collectorSlot
	pending int
}

// NewCollector constructs a Collector with cfg.SourceCount empty slots.
func NewCollector(id PrimitiveID, cfg primitives.CollectorConfig, clock Clock, reporter ErrorReporter) *Collector {
	c := &Collector{
		base:  newBase(id, "Collector", reporter),
		clock: clock,
		cfg:   cfg,
		slots: make([]collectorSlot, cfg.SourceCount),
	}
	c.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	return c
}

func (c *Collector) Trigger(param any, ctx primitives.SignalContext) {
	p, ok := decodeCollectorParam(param)
	if !ok || p.index < 0 || p.index >= len(c.slots) {
		c.warn("Collector: invalid source index parameter %v", param)
		return
	}

	c.mu.Lock()
	now := c.clock.Now()
	c.expireLocked(now)

	slot := &c.slots[p.index]
	if p.cancel {
		if slot.triggered {
			slot.triggered = false
			slot.ctx = primitives.SignalContext{}
			c.pending--
		}
		c.mu.Unlock()
		return
	}

	if !slot.triggered {
		c.pending++
	}
	slot.triggered = true
	slot.ctx = ctx
	if c.cfg.Timeouts != nil && p.index < len(c.cfg.Timeouts) && c.cfg.Timeouts[p.index] > 0 {
		slot.deadline = now.Add(c.cfg.Timeouts[p.index])
	} else {
		slot.deadline = time.Time{}
	}

	fire := c.pending == len(c.slots)
	var out []primitives.SignalContext
	if fire {
		out = make([]primitives.SignalContext, len(c.slots))
		for i := range c.slots {
			out[i] = c.slots[i].ctx
		}
		c.resetLocked()
	}

	if fire && c.outbound != nil {
		c.outbound.Trigger(primitives.ListContext(out))
	}
	c.mu.Unlock()
}

// expireLocked must be called with c.mu held. It clears any triggered slot
// past its deadline.
func (c *Collector) expireLocked(now time.Time) {
	for i := range c.slots {
		s := &c.slots[i]
		if s.triggered && !s.deadline.IsZero() && now.After(s.deadline) {
			s.triggered = false
			s.ctx = primitives.SignalContext{}
			s.deadline = time.Time{}
			c.pending--
		}
	}
}

func (c *Collector) resetLocked() {
	c.slots = make([]collectorSlot, len(c.slots))
	c.pending = 0
}

// Pending reports the number of slots currently satisfied, taking c.mu.
// KeyedCollector uses this to decide whether a per-key Collector is idle
// and can be removed, since pending is private to Collector's own lock.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// CollectorInOrder requires its SourceCount inputs in strict index order,
// advancing a single pointer instead of tracking per-slot completion.
type CollectorInOrder struct {
	*base
	clock    Clock
	cfg      primitives.CollectorConfig
	mu       sync.Mutex
	slots    []collectorSlot
	nextIdx  int
}

// NewCollectorInOrder constructs a CollectorInOrder awaiting index 0 first.
func NewCollectorInOrder(id PrimitiveID, cfg primitives.CollectorConfig, clock Clock, reporter ErrorReporter) *CollectorInOrder {
	c := &CollectorInOrder{
		base:  newBase(id, "CollectorInOrder", reporter),
		clock: clock,
		cfg:   cfg,
		slots: make([]collectorSlot, cfg.SourceCount),
	}
	c.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	return c
}

func (c *CollectorInOrder) Trigger(param any, ctx primitives.SignalContext) {
	p, ok := decodeCollectorParam(param)
	if !ok || p.index < 0 || p.index >= len(c.slots) {
		c.warn("CollectorInOrder: invalid source index parameter %v", param)
		return
	}

	c.mu.Lock()
	now := c.clock.Now()
	if rewindTo, expired := c.expireLocked(now); expired {
		c.nextIdx = rewindTo
	}

	if p.cancel {
		if p.index < c.nextIdx {
			c.nextIdx = p.index
			c.clearFrom(p.index)
		}
		c.mu.Unlock()
		return
	}

	if p.index != c.nextIdx {
		c.mu.Unlock()
		return
	}

	slot := &c.slots[p.index]
	slot.triggered = true
	slot.ctx = ctx
	if c.cfg.Timeouts != nil && p.index < len(c.cfg.Timeouts) && c.cfg.Timeouts[p.index] > 0 {
		slot.deadline = now.Add(c.cfg.Timeouts[p.index])
	} else {
		slot.deadline = time.Time{}
	}
	c.nextIdx++

	fire := c.nextIdx == len(c.slots)
	var out []primitives.SignalContext
	if fire {
		out = make([]primitives.SignalContext, len(c.slots))
		for i := range c.slots {
			out[i] = c.slots[i].ctx
		}
		c.slots = make([]collectorSlot, len(c.slots))
		c.nextIdx = 0
	}

	if fire && c.outbound != nil {
		c.outbound.Trigger(primitives.ListContext(out))
	}
	c.mu.Unlock()
}

// expireLocked must be called with c.mu held. If any already-satisfied
// slot before nextIdx has expired, it reports the earliest such index so
// the caller can rewind nextIdx to it.
func (c *CollectorInOrder) expireLocked(now time.Time) (int, bool) {
	for i := 0; i < c.nextIdx; i++ {
		s := &c.slots[i]
		if s.triggered && !s.deadline.IsZero() && now.After(s.deadline) {
			return i, true
		}
	}
	return 0, false
}

func (c *CollectorInOrder) clearFrom(idx int) {
	for i := idx; i < len(c.slots); i++ {
		c.slots[i] = collectorSlot{}
	}
}

// NextIdx reports the next slot index awaited, taking c.mu.
// KeyedCollectorInOrder uses this to decide whether a per-key
// CollectorInOrder is idle and can be removed, since nextIdx is private
// to CollectorInOrder's own lock.
func (c *CollectorInOrder) NextIdx() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextIdx
}

// keyedCollectorParam decodes (key, source_index, cancel?) or
// (key, "RemoveKey").
type keyedCollectorParam struct {
	key       any
	removeKey bool
	index     int
	cancel    bool
}

func decodeKeyedParam(param any) (keyedCollectorParam, bool) {
	v, ok := param.([]any)
	if !ok || len(v) < 2 {
		return keyedCollectorParam{}, false
	}
	if s, ok := v[1].(string); ok && s == "RemoveKey" {
		return keyedCollectorParam{key: v[0], removeKey: true}, true
	}
	idx, ok := toInt(v[1])
	if !ok {
		return keyedCollectorParam{}, false
	}
	cancel := false
	if len(v) > 2 {
		cancel, _ = v[2].(bool)
	}
	return keyedCollectorParam{key: v[0], index: idx, cancel: cancel}, true
}

// KeyedCollector is Collector with an independent slot set per key, created
// lazily on first reference and removed on RemoveKey or completion.
type KeyedCollector struct {
	*base
	clock Clock
	cfg   primitives.CollectorConfig
	mu    sync.Mutex
	keyed map[any]*Collector
}

// NewKeyedCollector constructs an empty KeyedCollector.
func NewKeyedCollector(id PrimitiveID, cfg primitives.CollectorConfig, clock Clock, reporter ErrorReporter) *KeyedCollector {
	k := &KeyedCollector{
		base:  newBase(id, "KeyedCollector", reporter),
		clock: clock,
		cfg:   cfg,
		keyed: make(map[any]*Collector),
	}
	k.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { k.Trigger(param, ctx) })
	return k
}

func (k *KeyedCollector) Trigger(param any, ctx primitives.SignalContext) {
	p, ok := decodeKeyedParam(param)
	if !ok {
		k.warn("KeyedCollector: malformed parameter %v", param)
		return
	}
	k.mu.Lock()
	if p.removeKey {
		delete(k.keyed, p.key)
		k.mu.Unlock()
		return
	}
	inner, exists := k.keyed[p.key]
	if !exists {
		inner = NewCollector(k.id, k.cfg, k.clock, k.reporter)
		inner.outbound = k.outbound
		k.keyed[p.key] = inner
	}
	k.mu.Unlock()

	inner.Trigger([]any{p.index, p.cancel}, ctx)

	if inner.Pending() == 0 {
		k.mu.Lock()
		delete(k.keyed, p.key)
		k.mu.Unlock()
	}
}

// KeyedCollectorInOrder is CollectorInOrder with a per-key slot set.
type KeyedCollectorInOrder struct {
	*base
	clock Clock
	cfg   primitives.CollectorConfig
	mu    sync.Mutex
	keyed map[any]*CollectorInOrder
}

// NewKeyedCollectorInOrder constructs an empty KeyedCollectorInOrder.
func NewKeyedCollectorInOrder(id PrimitiveID, cfg primitives.CollectorConfig, clock Clock, reporter ErrorReporter) *KeyedCollectorInOrder {
	k := &KeyedCollectorInOrder{
		base:  newBase(id, "KeyedCollectorInOrder", reporter),
		clock: clock,
		cfg:   cfg,
		keyed: make(map[any]*CollectorInOrder),
	}
	k.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { k.Trigger(param, ctx) })
	return k
}

func (k *KeyedCollectorInOrder) Trigger(param any, ctx primitives.SignalContext) {
	p, ok := decodeKeyedParam(param)
	if !ok {
		k.warn("KeyedCollectorInOrder: malformed parameter %v", param)
		return
	}
	k.mu.Lock()
	if p.removeKey {
		delete(k.keyed, p.key)
		k.mu.Unlock()
		return
	}
	inner, exists := k.keyed[p.key]
	if !exists {
		inner = NewCollectorInOrder(k.id, k.cfg, k.clock, k.reporter)
		inner.outbound = k.outbound
		k.keyed[p.key] = inner
	}
	k.mu.Unlock()

	inner.Trigger([]any{p.index, p.cancel}, ctx)

	if inner.NextIdx() == 0 {
		k.mu.Lock()
		delete(k.keyed, p.key)
		k.mu.Unlock()
	}
}
