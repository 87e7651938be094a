package primitives

import "fmt"

// ConnectToDescription is one edge out of a SourceEvent or primitive node
//. SignalParameter is whatever a rule author put under
// ConnectTo.<localName>.SignalParameter — a literal, a literal list, or a
// macro string (or list thereof); it is compiled to a ParamTemplate by the
// rule compiler once the target primitive's MetaEvent is known.
type ConnectToDescription struct {
	SignalParameter   any  `yaml:"SignalParameter,omitempty"`
	TriggerOnNegative bool `yaml:"TriggerOnNegative,omitempty"`
}

// SourceEventDescription is a node matched by incoming event name.
type SourceEventDescription struct {
	EventName string                           `yaml:"EventName"`
	ConnectTo map[string]ConnectToDescription `yaml:"ConnectTo,omitempty"`
}

// PrimitiveDescription is a single primitive node: its kind, its
// unique-in-rule local name, its configuration, and its outbound edges.
type PrimitiveDescription struct {
	Type       string                           `yaml:"Type"`
	Name       string                           `yaml:"Name"`
	Parameters map[string]any                   `yaml:"Parameters,omitempty"`
	ConnectTo  map[string]ConnectToDescription `yaml:"ConnectTo,omitempty"`
}

// RuleDescription is the in-memory rule produced by an external rule
// file parser. It has a unique name and an ordered list of nodes,
// represented here as two slices to distinguish SourceEvent nodes from
// primitive nodes while preserving each one's own declaration order.
type RuleDescription struct {
	RuleName     string                    `yaml:"RuleName"`
	SourceEvents []SourceEventDescription `yaml:"SourceEvents,omitempty"`
	Primitives   []PrimitiveDescription    `yaml:"Primitives"`
}

// RuleSet is the top-level document shape from ("Rules: [...]"),
// used by the optional YAML convenience decoder in the root package.
type RuleSet struct {
	Rules []RuleDescription `yaml:"Rules"`
}

// Validate performs the structural checks from step 1 that do
// not require knowledge of the primitive type registry: unique local
// names, every ConnectTo target defined, and no self-loops. Primitive
// type/config validation and macro parsing are the compiler's job, since
// they need the registry and the MetaEvent.
func (r RuleDescription) Validate() error {
	if r.RuleName == "" {
		return ValidationErrorf("rule has no RuleName")
	}
	if len(r.Primitives) == 0 {
		return ValidationErrorf("rule %q has no primitives", r.RuleName)
	}

	names := make(map[string]bool, len(r.Primitives))
	for _, p := range r.Primitives {
		if p.Name == "" {
			return ValidationErrorf("rule %q: primitive of type %q has no Name", r.RuleName, p.Type)
		}
		if names[p.Name] {
			return ValidationErrorf("rule %q: duplicate primitive name %q", r.RuleName, p.Name)
		}
		names[p.Name] = true
	}

	checkEdges := func(from string, edges map[string]ConnectToDescription) error {
		for target := range edges {
			if target == from {
				return ValidationErrorf("rule %q: %q connects to itself", r.RuleName, from)
			}
			if !names[target] {
				return ValidationErrorf("rule %q: %q connects to undefined primitive %q", r.RuleName, from, target)
			}
		}
		return nil
	}

	for _, se := range r.SourceEvents {
		if se.EventName == "" {
			return ValidationErrorf("rule %q: SourceEvent with no EventName", r.RuleName)
		}
		if err := checkEdges(fmt.Sprintf("<SourceEvent %s>", se.EventName), se.ConnectTo); err != nil {
			return err
		}
	}
	for _, p := range r.Primitives {
		if err := checkEdges(p.Name, p.ConnectTo); err != nil {
			return err
		}
	}
	return nil
}
