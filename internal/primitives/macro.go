package primitives

import (
	"strconv"
	"strings"
)

// macroPrefix marks a string as a macro literal rather than a plain scalar
//.
const macroPrefix = "#MACRO#"

// macroKind distinguishes the three macro grammars.
type macroKind int

const (
	macroEventProperty         macroKind = iota // Context.Event.<prop>
	macroCollectionPath                         // Contexts[i][j]...
	macroCollectionPathProperty                 // Contexts[i][j]....Event.<prop>
)

// Macro is a parsed, precompiled parameter macro. Parsing happens once at
// connection time; evaluation at trigger time is O(path length) and never
// touches the event ABI's name-to-id lookup again.
type Macro struct {
	kind     macroKind
	indices  []int
	propName string
	propID   int
}

// CompileMacro parses a macro literal (the string including the
// "#MACRO#" prefix) against meta, resolving any trailing property name to
// its integer id. Invalid property names or malformed index paths fail
// here, surfacing as a rule-load error.
func CompileMacro(literal string, meta MetaEvent) (*Macro, error) {
	body := strings.TrimPrefix(literal, macroPrefix)

	if rest, ok := stripPrefix(body, "Context.Event."); ok {
		if rest == "" {
			return nil, ParseErrorf("macro %q: empty property name", literal)
		}
		id := meta.PropertyID(rest)
		if id < 0 {
			return nil, ParseErrorf("macro %q: unknown property %q", literal, rest)
		}
		return &Macro{kind: macroEventProperty, propName: rest, propID: id}, nil
	}

	if strings.HasPrefix(body, "Contexts") {
		indices, rest, err := parseIndices(body[len("Contexts"):])
		if err != nil {
			return nil, ParseErrorf("macro %q: %v", literal, err)
		}
		if rest == "" {
			return &Macro{kind: macroCollectionPath, indices: indices}, nil
		}
		prop, ok := stripPrefix(rest, ".Event.")
		if !ok || prop == "" {
			return nil, ParseErrorf("macro %q: unexpected trailer %q", literal, rest)
		}
		id := meta.PropertyID(prop)
		if id < 0 {
			return nil, ParseErrorf("macro %q: unknown property %q", literal, prop)
		}
		return &Macro{kind: macroCollectionPathProperty, indices: indices, propName: prop, propID: id}, nil
	}

	return nil, ParseErrorf("macro %q: unrecognized grammar", literal)
}

func stripPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

// parseIndices reads a run of "[<int>]" groups from the front of s and
// returns the parsed indices plus whatever remains (e.g. ".Event.Foo" or
// "").
func parseIndices(s string) ([]int, string, error) {
	var indices []int
	for strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, "", ParseErrorf("unterminated index in %q", s)
		}
		n, err := strconv.Atoi(s[1:end])
		if err != nil {
			return nil, "", ParseErrorf("malformed index %q", s[1:end])
		}
		indices = append(indices, n)
		s = s[end+1:]
	}
	if len(indices) == 0 {
		return nil, "", ParseErrorf("expected at least one [index] after Contexts")
	}
	return indices, s, nil
}

// Evaluate walks ctx according to m's compiled grammar and returns the
// resolved value.
func (m *Macro) Evaluate(ctx SignalContext) (any, error) {
	switch m.kind {
	case macroEventProperty:
		ev, ok := ctx.Event()
		if !ok {
			return nil, ValidationErrorf("Context.Event.%s: context is not a single event", m.propName)
		}
		return ev.Get(m.propID), nil

	case macroCollectionPath:
		leaf, err := walk(ctx, m.indices)
		if err != nil {
			return nil, err
		}
		return leaf.Value(), nil

	case macroCollectionPathProperty:
		leaf, err := walk(ctx, m.indices)
		if err != nil {
			return nil, err
		}
		ev, ok := leaf.Event()
		if !ok {
			return nil, ValidationErrorf("Contexts path leaf is not an event for .Event.%s", m.propName)
		}
		return ev.Get(m.propID), nil
	}
	return nil, ValidationErrorf("unreachable macro kind %d", m.kind)
}

func walk(ctx SignalContext, indices []int) (SignalContext, error) {
	cur := ctx
	for _, i := range indices {
		if !cur.IsList() {
			return SignalContext{}, ValidationErrorf("Contexts index %d: context is not a list", i)
		}
		list := cur.List()
		if i < 0 || i >= len(list) {
			return SignalContext{}, ValidationErrorf("Contexts index %d out of range (len %d)", i, len(list))
		}
		cur = list[i]
	}
	return cur, nil
}
