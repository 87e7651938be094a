package core

import (
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

func TestProcessEvent_ActorOrdering(t *testing.T) {
	meta := newFakeMeta()
	e := NewEngine(meta)

	var order []string
	e.RegisterActor("Ping", false, func(primitives.Event) { order = append(order, "low") })
	e.RegisterActor("Ping", true, func(primitives.Event) { order = append(order, "high") })
	e.RegisterActor("Ping", false, func(primitives.Event) { order = append(order, "low2") })

	e.ProcessEvent(newFakeEvent("Ping", nil, meta))

	want := []string{"high", "low", "low2"}
	if len(order) != len(want) {
		t.Fatalf("got order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
}

func TestUnregisterActor_RemovesByIdentity(t *testing.T) {
	meta := newFakeMeta()
	e := NewEngine(meta)

	calls := 0
	fn := func(primitives.Event) { calls++ }
	other := func(primitives.Event) { calls += 100 }

	e.RegisterActor("Ping", false, fn)
	e.RegisterActor("Ping", false, other)
	e.UnregisterActor("Ping", fn)
	e.ProcessEvent(newFakeEvent("Ping", nil, meta))

	if calls != 100 {
		t.Fatalf("expected only other to fire (calls=100), got %d", calls)
	}
}

func TestUnregisterActor_UnknownFuncIsNoop(t *testing.T) {
	e := NewEngine(newFakeMeta())
	e.UnregisterActor("Ping", func(primitives.Event) {})
}

func TestProcessEvent_WildcardActorFiresForEveryEvent(t *testing.T) {
	meta := newFakeMeta()
	e := NewEngine(meta)

	var seen []string
	e.RegisterActor(allEventsName, false, func(evt primitives.Event) { seen = append(seen, evt.Name()) })

	e.ProcessEvent(newFakeEvent("Ping", nil, meta))
	e.ProcessEvent(newFakeEvent("Pong", nil, meta))

	if len(seen) != 2 || seen[0] != "Ping" || seen[1] != "Pong" {
		t.Fatalf("expected wildcard actor to see both events in order, got %v", seen)
	}
}

func TestProcessEvent_UnknownEventNameIsHarmless(t *testing.T) {
	e := NewEngine(newFakeMeta())
	// No dispatcher, no actors registered for this name: should not panic.
	e.ProcessEvent(newFakeEvent("Nobody", nil, newFakeMeta()))
}

// TestProcessEvent_DerivedEventReentrancy matches spec.md §8's chained
// rule scenario: an EventGenerator-produced event is itself routed back
// through ProcessEvent (via the engine acting as its own EventSink),
// reaching the actor registered for the derived event synchronously within
// the same call.
func TestProcessEvent_DerivedEventReentrancy(t *testing.T) {
	meta := newFakeMeta()
	e := NewEngine(meta)

	ruleA := ruleDesc("A",
		[]primitives.SourceEventDescription{{EventName: "Trigger", ConnectTo: connectTo("Gen")}},
		[]primitives.PrimitiveDescription{
			{Type: "EventGenerator", Name: "Gen", Parameters: map[string]any{"NewEventName": "Derived"}},
		},
	)
	if err := e.AddRule(ruleA); err != nil {
		t.Fatalf("AddRule A: %v", err)
	}

	fired := false
	e.RegisterActor("Derived", false, func(primitives.Event) { fired = true })

	e.ProcessEvent(newFakeEvent("Trigger", nil, meta))

	if !fired {
		t.Fatalf("expected the derived event to reach its actor within the same ProcessEvent call")
	}
}
