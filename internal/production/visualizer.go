// Package production provides production integrations for the engine:
// graph visualization, topology snapshotting, Prometheus metrics, and a
// multi-engine registry. Adapts the teacher's internal/production
// (DefaultVisualizer, JSONPersister/YAMLPersister) to this engine's live
// primitive graph instead of a statechart's static config.
package production

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/flowlattice/cepengine/internal/core"
)

// DefaultVisualizer is the stdlib-only implementation of graph export. It
// renders the *live* primitive graph — what sharing has actually wired —
// as Graphviz DOT, exactly as the teacher's DefaultVisualizer renders a
// statechart's active/inactive states, but over primitives and signal
// edges instead of states and transitions.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for snap. Nodes are primitives
// annotated with type and depender count; dispatcher event names get
// their own node shaped as an ellipse. Paused edges render dashed,
// negative-output edges render dotted.
func (DefaultVisualizer) ExportDOT(snap core.GraphSnapshot) string {
	var buf bytes.Buffer
	buf.WriteString("digraph CEPEngine {\n  rankdir=LR;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n\n")

	dispatchers := append([]string(nil), snap.Dispatchers...)
	sort.Strings(dispatchers)
	for _, name := range dispatchers {
		label := name
		if label == "" {
			label = "<synthetic>"
		}
		fmt.Fprintf(&buf, "  \"event:%s\" [label=%q shape=ellipse style=filled fillcolor=lightyellow];\n", name, label)
	}

	prims := append([]core.PrimitiveSnapshot(nil), snap.Primitives...)
	sort.Slice(prims, func(i, j int) bool { return prims[i].ID < prims[j].ID })
	for _, p := range prims {
		fmt.Fprintf(&buf, "  \"p%d\" [label=\"%s #%d\\ndependers=%d\"];\n", p.ID, p.Type, p.ID, p.Dependers)
	}

	buf.WriteString("\n")
	for _, edge := range snap.Edges {
		from := nodeID(edge.From)
		style := ""
		switch {
		case edge.Paused && edge.Negative:
			style = " [style=dashed color=red]"
		case edge.Paused:
			style = " [style=dashed]"
		case edge.Negative:
			style = " [style=dotted]"
		}
		fmt.Fprintf(&buf, "  \"%s\" -> \"p%d\"%s;\n", from, edge.To, style)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(ref core.NodeRef) string {
	if ref.IsEvent {
		return "event:" + ref.Event
	}
	return fmt.Sprintf("p%d", ref.PrimitiveID)
}
