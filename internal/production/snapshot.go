package production

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/flowlattice/cepengine/internal/core"
)

// TopologySnapshot is the diagnostic, offline-inspectable export of a
// live engine's graph topology. It is not a durable-state reload path —
// no primitive internal state (queues, per-key maps, counter values) is
// captured, only what Engine.GraphSnapshot exposes — matching the
// Non-goal that rules out durable persistence of primitive state while
// still giving golden-file tests something stable to compare against for
// sharing and pending-delete scenarios.
type TopologySnapshot struct {
	CorrelationID   string                       `json:"correlation_id" yaml:"correlation_id"`
	Dispatchers     []string                     `json:"dispatchers" yaml:"dispatchers"`
	RuleToEvent     map[string]string             `json:"rule_to_event" yaml:"rule_to_event"`
	EventGenerators map[string]core.PrimitiveID `json:"event_generators" yaml:"event_generators"`
	PendingRules    []string                     `json:"pending_rules,omitempty" yaml:"pending_rules,omitempty"`
	Primitives      []core.PrimitiveSnapshot     `json:"primitives" yaml:"primitives"`
	Edges           []core.EdgeRef               `json:"edges" yaml:"edges"`
}

// newTopologySnapshot stamps snap with a fresh correlation id, the way
// EventGenerator's synthetic-instance-id hint and the teacher's persisted
// snapshots are both identified — grounded on the retrieval pack's uuid
// usage rather than the teacher, which has no analogous id.
func newTopologySnapshot(snap core.GraphSnapshot) TopologySnapshot {
	return TopologySnapshot{
		CorrelationID:   uuid.New().String(),
		Dispatchers:     snap.Dispatchers,
		RuleToEvent:     snap.RuleToEvent,
		EventGenerators: snap.EventGenerators,
		PendingRules:    snap.PendingRules,
		Primitives:      snap.Primitives,
		Edges:           snap.Edges,
	}
}

// JSONPersister is a stdlib-only file-based persister for
// TopologySnapshot, adapting the teacher's JSONPersister from statechart
// machine snapshots to CEP graph topology snapshots.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring dir exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

// Save renders engine's current graph as a TopologySnapshot and writes it
// to name.json, returning the stamped snapshot.
func (p *JSONPersister) Save(name string, snap core.GraphSnapshot) (TopologySnapshot, error) {
	ts := newTopologySnapshot(snap)
	data, err := json.MarshalIndent(ts, "", "  ")
	if err != nil {
		return TopologySnapshot{}, fmt.Errorf("json marshal: %w", err)
	}
	fn := filepath.Join(p.dir, name+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return TopologySnapshot{}, fmt.Errorf("write %s: %w", fn, err)
	}
	return ts, nil
}

// Load reads name.json back into a TopologySnapshot.
func (p *JSONPersister) Load(name string) (TopologySnapshot, error) {
	fn := filepath.Join(p.dir, name+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TopologySnapshot{}, fmt.Errorf("snapshot %q: %w", name, os.ErrNotExist)
		}
		return TopologySnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}
	var ts TopologySnapshot
	if err := json.Unmarshal(data, &ts); err != nil {
		return TopologySnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return ts, nil
}

// YAMLPersister is the YAML-encoded counterpart of JSONPersister, backed
// by the same gopkg.in/yaml.v3 dependency the teacher already carries for
// its own YAMLPersister.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring dir exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

// Save renders engine's current graph as a TopologySnapshot and writes it
// to name.yaml, returning the stamped snapshot.
func (p *YAMLPersister) Save(name string, snap core.GraphSnapshot) (TopologySnapshot, error) {
	ts := newTopologySnapshot(snap)
	data, err := yaml.Marshal(ts)
	if err != nil {
		return TopologySnapshot{}, fmt.Errorf("yaml marshal: %w", err)
	}
	fn := filepath.Join(p.dir, name+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return TopologySnapshot{}, fmt.Errorf("write %s: %w", fn, err)
	}
	return ts, nil
}

// Load reads name.yaml back into a TopologySnapshot.
func (p *YAMLPersister) Load(name string) (TopologySnapshot, error) {
	fn := filepath.Join(p.dir, name+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TopologySnapshot{}, fmt.Errorf("snapshot %q: %w", name, os.ErrNotExist)
		}
		return TopologySnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}
	var ts TopologySnapshot
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return TopologySnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return ts, nil
}
