package production

import (
	"github.com/flowlattice/cepengine/internal/core"
	"github.com/flowlattice/cepengine/internal/primitives"
)

// testMeta and testEvent back every test in this package with a minimal
// MetaEvent/Event pair, mirroring internal/core's own fakeMeta/fakeEvent.

type testMeta struct{}

func (testMeta) NewInstance(name string) primitives.Event { return &testEvent{name: name} }
func (testMeta) PropertyID(name string) int               { return -1 }

type testEvent struct {
	name string
}

func (e *testEvent) Name() string      { return e.name }
func (e *testEvent) Get(id int) any    { return nil }
func (e *testEvent) Set(id int, v any) {}

func newTestEngine() *core.Engine {
	return core.NewEngine(testMeta{})
}
