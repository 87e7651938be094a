package core

import "github.com/flowlattice/cepengine/internal/primitives"

// fakeEvent and fakeMeta back every integration-level test in this
// package (compiler, remover, dispatch): a minimal, dependency-free
// stand-in for a host's real event ABI.

type fakeEvent struct {
	name  string
	props map[int]any
}

func (e *fakeEvent) Name() string      { return e.name }
func (e *fakeEvent) Get(id int) any    { return e.props[id] }
func (e *fakeEvent) Set(id int, v any) { e.props[id] = v }

func newFakeEvent(name string, props map[string]any, meta *fakeMeta) *fakeEvent {
	e := &fakeEvent{name: name, props: map[int]any{}}
	for k, v := range props {
		id := meta.PropertyID(k)
		if id < 0 {
			panic("newFakeEvent: unknown property " + k)
		}
		e.props[id] = v
	}
	return e
}

type fakeMeta struct {
	ids map[string]int
}

// newFakeMeta builds a MetaEvent whose property ids are assigned in the
// order names are listed, 1-based (0 is never a valid id so a forgotten
// lookup reliably fails fast).
func newFakeMeta(names ...string) *fakeMeta {
	ids := make(map[string]int, len(names))
	for i, n := range names {
		ids[n] = i + 1
	}
	return &fakeMeta{ids: ids}
}

func (m *fakeMeta) NewInstance(name string) primitives.Event {
	return &fakeEvent{name: name, props: map[int]any{}}
}

func (m *fakeMeta) PropertyID(name string) int {
	id, ok := m.ids[name]
	if !ok {
		return -1
	}
	return id
}
