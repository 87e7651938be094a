package primitives

// contextKind tags which of the three shapes a SignalContext holds.
type contextKind int

const (
	kindEvent contextKind = iota
	kindList
	kindRaw
)

// SignalContext is the opaque payload that rides along every signal firing
//. It is a tagged union of three shapes: a single
// Event (seeded by the dispatcher from the incoming event, and passed
// through unchanged by single-input primitives), an ordered list of
// SignalContexts (emitted by primitives that join multiple inputs —
// Collector, KeyedCollector, Accumulator, and their ordered variants), or
// a raw scalar (Accumulator's emitted total is a raw int64 riding in slot
// zero alongside the retained per-input contexts).
type SignalContext struct {
	kind  contextKind
	event Event
	list  []SignalContext
	raw   any
}

// EventContext wraps a single event as a context.
func EventContext(e Event) SignalContext {
	return SignalContext{kind: kindEvent, event: e}
}

// ListContext wraps an ordered slice of sub-contexts.
func ListContext(items []SignalContext) SignalContext {
	return SignalContext{kind: kindList, list: items}
}

// RawContext wraps a scalar value that did not originate from an Event.
func RawContext(v any) SignalContext {
	return SignalContext{kind: kindRaw, raw: v}
}

// IsList reports whether c is a list of sub-contexts.
func (c SignalContext) IsList() bool { return c.kind == kindList }

// IsEvent reports whether c wraps a single Event.
func (c SignalContext) IsEvent() bool { return c.kind == kindEvent }

// Event returns the wrapped event and true if c is an event context.
func (c SignalContext) Event() (Event, bool) {
	return c.event, c.kind == kindEvent
}

// List returns the wrapped slice if c is a list context, else nil.
func (c SignalContext) List() []SignalContext {
	if c.kind != kindList {
		return nil
	}
	return c.list
}

// Value returns the leaf value of c: the Event for an event context, the
// raw scalar for a raw context, or the list itself (as []SignalContext)
// when c is a list and no further indexing narrowed it to a scalar.
func (c SignalContext) Value() any {
	switch c.kind {
	case kindEvent:
		return c.event
	case kindRaw:
		return c.raw
	default:
		return c.list
	}
}
