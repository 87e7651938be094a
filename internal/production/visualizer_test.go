package production

import (
	"strings"
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

func TestDefaultVisualizer_ExportDOT(t *testing.T) {
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

	dot := DefaultVisualizer{}.ExportDOT(engine.GraphSnapshot())

	if !strings.HasPrefix(dot, "digraph CEPEngine {") {
		t.Fatalf("expected DOT to start with digraph header, got:\n%s", dot)
	}
	if !strings.Contains(dot, `"event:Ping"`) {
		t.Fatalf("expected a node for the Ping dispatcher, got:\n%s", dot)
	}
	if !strings.Contains(dot, "BasicCounter #1") {
		t.Fatalf("expected a labeled BasicCounter node, got:\n%s", dot)
	}
	if !strings.Contains(dot, `"event:Ping" -> "p1"`) {
		t.Fatalf("expected an edge from the Ping dispatcher to p1, got:\n%s", dot)
	}
	if !strings.HasSuffix(strings.TrimRight(dot, "\n"), "}") {
		t.Fatalf("expected DOT to end with a closing brace, got:\n%s", dot)
	}
}
