package primitives

// fakeEvent and fakeMeta back the primitives package's own unit tests;
// internal/core has a richer fake shared across its test files.

type fakeEvent struct {
	name  string
	props map[int]any
}

func (e *fakeEvent) Name() string         { return e.name }
func (e *fakeEvent) Get(id int) any       { return e.props[id] }
func (e *fakeEvent) Set(id int, v any)    { e.props[id] = v }

type fakeMeta struct {
	ids map[string]int
}

func newFakeMeta(names ...string) *fakeMeta {
	ids := make(map[string]int, len(names))
	for i, n := range names {
		ids[n] = i + 1
	}
	return &fakeMeta{ids: ids}
}

func (m *fakeMeta) NewInstance(name string) Event {
	return &fakeEvent{name: name, props: map[int]any{}}
}

func (m *fakeMeta) PropertyID(name string) int {
	id, ok := m.ids[name]
	if !ok {
		return -1
	}
	return id
}
