package production

import (
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

func TestJSONPersister_SaveLoadRoundTrip(t *testing.T) {
	engine := newTestEngine()
	desc := primitives.RuleDescription{
		RuleName: "r1",
		SourceEvents: []primitives.SourceEventDescription{
			{EventName: "Ping", ConnectTo: map[string]primitives.ConnectToDescription{"Ctr": {}}},
		},
		Primitives: []primitives.PrimitiveDescription{{Type: "BasicCounter", Name: "Ctr"}},
	}
	if err := engine.AddRule(desc); err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	p, err := NewJSONPersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONPersister: %v", err)
	}

	saved, err := p.Save("topology", engine.GraphSnapshot())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.CorrelationID == "" {
		t.Fatalf("expected a stamped correlation id")
	}
	if len(saved.Primitives) != 1 {
		t.Fatalf("expected 1 primitive in the snapshot, got %d", len(saved.Primitives))
	}

	loaded, err := p.Load("topology")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.CorrelationID != saved.CorrelationID {
		t.Fatalf("correlation id mismatch after round-trip: %q vs %q", loaded.CorrelationID, saved.CorrelationID)
	}
	if len(loaded.Primitives) != 1 || loaded.Primitives[0].Type != "BasicCounter" {
		t.Fatalf("expected round-tripped primitive to be a BasicCounter, got %+v", loaded.Primitives)
	}
}

func TestJSONPersister_LoadMissingFile(t *testing.T) {
	p, err := NewJSONPersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONPersister: %v", err)
	}
	if _, err := p.Load("nope"); err == nil {
		t.Fatalf("expected an error loading a snapshot that was never saved")
	}
}

func TestYAMLPersister_SaveLoadRoundTrip(t *testing.T) {
	engine := newTestEngine()
	desc := primitives.RuleDescription{
		RuleName: "r1",
		SourceEvents: []primitives.SourceEventDescription{
			{EventName: "Ping", ConnectTo: map[string]primitives.ConnectToDescription{"Ctr": {}}},
		},
		Primitives: []primitives.PrimitiveDescription{{Type: "BasicCounter", Name: "Ctr"}},
	}
	if err := engine.AddRule(desc); err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	p, err := NewYAMLPersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewYAMLPersister: %v", err)
	}

	saved, err := p.Save("topology", engine.GraphSnapshot())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := p.Load("topology")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.CorrelationID != saved.CorrelationID {
		t.Fatalf("correlation id mismatch after round-trip")
	}
	if len(loaded.Edges) != len(saved.Edges) {
		t.Fatalf("edge count mismatch after round-trip: %d vs %d", len(loaded.Edges), len(saved.Edges))
	}
}
