package production

import (
	"errors"
	"sort"
	"sync"

	"github.com/flowlattice/cepengine/internal/core"
)

// Sentinel errors for EngineRegistry, mirroring the
// ErrNotFound/ErrExists pair the teacher's own internal/core.Registry
// exposes for versioned machine snapshots.
var (
	ErrNotFound = errors.New("engine not found")
	ErrExists   = errors.New("engine name already registered")
)

// EngineRegistry is an in-memory directory of named, independently
// lifecycled engines, adapting the teacher's Registry interface (there
// used for versioned Machine snapshots) to the multiple-engines-per-
// process design note in spec.md §9: a host can look an engine up by
// name instead of threading pointers through its own code. Constructing
// an engine never requires a registry — this is purely additive.
type EngineRegistry struct {
	mu      sync.RWMutex
	engines map[string]*core.Engine
}

// NewEngineRegistry returns an empty EngineRegistry.
func NewEngineRegistry() *EngineRegistry {
	return &EngineRegistry{engines: make(map[string]*core.Engine)}
}

// Register adds engine under name. It fails if name is already taken.
func (r *EngineRegistry) Register(name string, engine *core.Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[name]; exists {
		return ErrExists
	}
	r.engines[name] = engine
	return nil
}

// Get returns the engine registered under name.
func (r *EngineRegistry) Get(name string) (*core.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Unregister removes name from the registry. It is idempotent.
func (r *EngineRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, name)
}

// Names returns every registered engine name, sorted.
func (r *EngineRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.engines))
	for name := range r.engines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
