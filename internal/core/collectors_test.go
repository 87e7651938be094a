package core

import (
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

func TestCollector_FiresWhenAllSlotsTriggered(t *testing.T) {
	c := NewCollector(1, primitives.CollectorConfig{SourceCount: 2}, RealClock(), nil)
	c.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, c.base.outbound)

	c.Trigger([]any{0, false}, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("should not fire with one slot")
	}
	c.Trigger([]any{1, false}, primitives.EventContext(nil))
	if *count != 1 {
		t.Fatalf("expected fire once both slots set, got %d", *count)
	}
	if c.pending != 0 {
		t.Fatalf("expected reset after fire")
	}
}

func TestCollector_CancelClearsSlot(t *testing.T) {
	c := NewCollector(1, primitives.CollectorConfig{SourceCount: 2}, RealClock(), nil)
	c.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, c.base.outbound)

	c.Trigger([]any{0, false}, primitives.EventContext(nil))
	c.Trigger([]any{0, true}, primitives.EventContext(nil))
	c.Trigger([]any{1, false}, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("cancel should have prevented firing, count=%d", *count)
	}
}

func TestCollectorInOrder_RequiresStrictOrder(t *testing.T) {
	c := NewCollectorInOrder(1, primitives.CollectorConfig{SourceCount: 2}, RealClock(), nil)
	c.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, c.base.outbound)

	c.Trigger([]any{1, false}, primitives.EventContext(nil))
	if *count != 0 || c.nextIdx != 0 {
		t.Fatalf("out-of-order trigger must be ignored")
	}
	c.Trigger([]any{0, false}, primitives.EventContext(nil))
	c.Trigger([]any{1, false}, primitives.EventContext(nil))
	if *count != 1 {
		t.Fatalf("expected fire in order, count=%d", *count)
	}
	if c.nextIdx != 0 {
		t.Fatalf("expected pointer reset after fire")
	}
}

func TestKeyedCollector_SeparatesByKey(t *testing.T) {
	k := NewKeyedCollector(1, primitives.CollectorConfig{SourceCount: 2}, RealClock(), nil)
	k.base.outbound = NewSignalSource(nil)
	count := fireOutbound(t, k.base.outbound)

	k.Trigger([]any{"a", 0, false}, primitives.EventContext(nil))
	k.Trigger([]any{"b", 0, false}, primitives.EventContext(nil))
	if *count != 0 {
		t.Fatalf("neither key complete yet")
	}
	k.Trigger([]any{"a", 1, false}, primitives.EventContext(nil))
	if *count != 1 {
		t.Fatalf("expected key a to fire, count=%d", *count)
	}
	if _, exists := k.keyed["a"]; exists {
		t.Fatalf("expected completed key entry to be removed")
	}
	if _, exists := k.keyed["b"]; !exists {
		t.Fatalf("expected key b to remain pending")
	}
}

func TestKeyedCollector_RemoveKey(t *testing.T) {
	k := NewKeyedCollector(1, primitives.CollectorConfig{SourceCount: 2}, RealClock(), nil)
	k.base.outbound = NewSignalSource(nil)
	k.Trigger([]any{"a", 0, false}, primitives.EventContext(nil))
	k.Trigger([]any{"a", "RemoveKey"}, primitives.EventContext(nil))
	if _, exists := k.keyed["a"]; exists {
		t.Fatalf("expected RemoveKey to discard entry")
	}
}
