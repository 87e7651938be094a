package core

import (
	"errors"
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

func ruleDesc(name string, sourceEvents []primitives.SourceEventDescription, prims []primitives.PrimitiveDescription) primitives.RuleDescription {
	return primitives.RuleDescription{RuleName: name, SourceEvents: sourceEvents, Primitives: prims}
}

func connectTo(target string) map[string]primitives.ConnectToDescription {
	return map[string]primitives.ConnectToDescription{target: {}}
}

func TestAddRule_BasicWiring(t *testing.T) {
	meta := newFakeMeta()
	e := NewEngine(meta)

	desc := ruleDesc("r1",
		[]primitives.SourceEventDescription{{EventName: "Ping", ConnectTo: map[string]primitives.ConnectToDescription{
			"Ctr": {SignalParameter: 1},
		}}},
		[]primitives.PrimitiveDescription{{Type: "BasicCounter", Name: "Ctr"}},
	)
	if err := e.AddRule(desc); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if e.PrimitiveCount() != 1 {
		t.Fatalf("expected 1 primitive, got %d", e.PrimitiveCount())
	}

	e.ProcessEvent(newFakeEvent("Ping", nil, meta))
	p, _ := e.arena.Get(e.rules["r1"].nodeIDs["Ctr"])
	val, _ := p.(Checkable).Check(nil)
	if val != int64(1) {
		t.Fatalf("expected counter 1, got %v", val)
	}
}

func TestAddRule_UnknownType(t *testing.T) {
	e := NewEngine(newFakeMeta())
	desc := ruleDesc("r1", nil, []primitives.PrimitiveDescription{
		{Type: "NoSuchType", Name: "x"},
	})
	err := e.AddRule(desc)
	if !errors.Is(err, primitives.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAddRule_DuplicateRuleName(t *testing.T) {
	meta := newFakeMeta()
	e := NewEngine(meta)
	desc := ruleDesc("r1",
		[]primitives.SourceEventDescription{{EventName: "Ping", ConnectTo: connectTo("Ctr")}},
		[]primitives.PrimitiveDescription{{Type: "BasicCounter", Name: "Ctr"}},
	)
	if err := e.AddRule(desc); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if err := e.AddRule(desc); err == nil {
		t.Fatalf("expected error re-adding rule %q", desc.RuleName)
	}
}

func TestAddRule_UntargetedPrimitiveRejected(t *testing.T) {
	e := NewEngine(newFakeMeta())
	desc := ruleDesc("r1", nil, []primitives.PrimitiveDescription{
		{Type: "BasicCounter", Name: "Ctr"}, // no inbound edge, not NonTargetable
	})
	err := e.AddRule(desc)
	if !errors.Is(err, primitives.ErrValidation) {
		t.Fatalf("expected ErrValidation for untargeted primitive, got %v", err)
	}
	if e.PrimitiveCount() != 0 {
		t.Fatalf("expected rollback to leave 0 primitives, got %d", e.PrimitiveCount())
	}
}

func TestAddRule_CycleDetected(t *testing.T) {
	e := NewEngine(newFakeMeta())
	desc := ruleDesc("r1",
		[]primitives.SourceEventDescription{{EventName: "Ping", ConnectTo: connectTo("A")}},
		[]primitives.PrimitiveDescription{
			{Type: "IntegerFilter", Name: "A", Parameters: map[string]any{"Condition": "Equals", "CompareTo": 1}, ConnectTo: connectTo("B")},
			{Type: "IntegerFilter", Name: "B", Parameters: map[string]any{"Condition": "Equals", "CompareTo": 1}, ConnectTo: connectTo("A")},
		},
	)
	err := e.AddRule(desc)
	if !errors.Is(err, primitives.ErrCompile) {
		t.Fatalf("expected ErrCompile for a cycle, got %v", err)
	}
}

func TestAddRule_NonCheckableCheckTargetRejected(t *testing.T) {
	e := NewEngine(newFakeMeta())
	// Checker references a CheckTarget that is a defined primitive but not
	// Checkable (IntegerFilter), which validateAndPrepare should reject
	// before any primitive is built.
	desc := ruleDesc("r1",
		[]primitives.SourceEventDescription{{EventName: "Ping", ConnectTo: connectTo("Filt")}},
		[]primitives.PrimitiveDescription{
			{Type: "IntegerFilter", Name: "Filt", Parameters: map[string]any{"Condition": "Equals", "CompareTo": 1}, ConnectTo: connectTo("Chk")},
			{Type: "Checker", Name: "Chk", Parameters: map[string]any{"CheckTarget": "Filt", "Condition": "GreaterThan", "CompareTo": 0}},
		},
	)
	err := e.AddRule(desc)
	if !errors.Is(err, primitives.ErrValidation) {
		t.Fatalf("expected ErrValidation (CheckTarget not Checkable), got %v", err)
	}
	if e.PrimitiveCount() != 0 {
		t.Fatalf("expected no primitives to survive rejection, got %d", e.PrimitiveCount())
	}
}

// TestAddRule_Sharing matches spec.md §8 scenario 5: a second rule whose
// nodes match an already-compiled rule under the sharing predicate reuses
// the existing primitives instead of creating new ones.
func TestAddRule_Sharing(t *testing.T) {
	meta := newFakeMeta("name")
	e := NewEngine(meta)

	mkRule := func(name, tail string) primitives.RuleDescription {
		prims := []primitives.PrimitiveDescription{
			{Type: "StringFilter", Name: "Filt", Parameters: map[string]any{
				"Method": "MatchSingle", "Condition": "Equals", "MatchTo": "notepad.exe",
			}},
		}
		if tail != "" {
			prims[0].ConnectTo = connectTo("Filt2")
			prims = append(prims, primitives.PrimitiveDescription{
				Type: "StringFilter", Name: "Filt2", Parameters: map[string]any{
					"Method": "MatchSingle", "Condition": "Equals", "MatchTo": tail,
				},
			})
		}
		return ruleDesc(name,
			[]primitives.SourceEventDescription{{EventName: "ProcessStart", ConnectTo: connectTo("Filt")}},
			prims,
		)
	}

	if err := e.AddRule(mkRule("r1", "")); err != nil {
		t.Fatalf("AddRule r1: %v", err)
	}
	before := e.PrimitiveCount()

	if err := e.AddRule(mkRule("r2", "child.exe")); err != nil {
		t.Fatalf("AddRule r2: %v", err)
	}
	after := e.PrimitiveCount()

	// r2 shares r1's Filt (same type/config/inbound source) and adds
	// exactly one new primitive (Filt2).
	if after != before+1 {
		t.Fatalf("expected sharing to add exactly 1 new primitive, went from %d to %d", before, after)
	}

	r1Filt := e.rules["r1"].nodeIDs["Filt"]
	r2Filt := e.rules["r2"].nodeIDs["Filt"]
	if r1Filt != r2Filt {
		t.Fatalf("expected r1 and r2 to share the same Filt primitive id")
	}
}
