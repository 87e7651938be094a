package production

import (
	"errors"
	"testing"
)

func TestEngineRegistry_RegisterGetUnregister(t *testing.T) {
	r := NewEngineRegistry()
	e1 := newTestEngine()
	e2 := newTestEngine()

	if err := r.Register("a", e1); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := r.Register("b", e2); err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if err := r.Register("a", e2); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists re-registering %q, got %v", "a", err)
	}

	got, err := r.Get("a")
	if err != nil || got != e1 {
		t.Fatalf("Get(a) = %v, %v; want e1, nil", got, err)
	}

	if names := r.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", names)
	}

	r.Unregister("a")
	if _, err := r.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Unregister, got %v", err)
	}
	r.Unregister("a") // idempotent
}
