package cepengine

import (
	"gopkg.in/yaml.v3"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// ParseRulesYAML decodes a YAML document shaped like:
//
//	Rules:
//	  - RuleName: my-rule
//	    SourceEvents:
//	      - EventName: SomeEvent
//	        ConnectTo:
//	          node1: { SignalParameter: 1 }
//	    Primitives:
//	      - Type: BasicCounter
//	        Name: node1
//
// into the in-memory RuleDescription slice AddRuleDescriptions expects.
// spec.md deliberately keeps the on-disk rule file format out of scope
// ("the rule file format parser... consumes text, emits the in-memory
// rule description"); this is this module's concrete encoding of exactly
// that in-memory shape, decoded with the same gopkg.in/yaml.v3 dependency
// the rest of this codebase already carries. Hosts with their own parser
// can skip this entirely and call AddRuleDescriptions directly.
func ParseRulesYAML(text string) ([]RuleDescription, error) {
	var doc primitives.RuleSet
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, primitives.ParseErrorf("rules YAML: %v", err)
	}
	return doc.Rules, nil
}

// AddRulesYAML decodes text as a Rules YAML document and compiles every
// rule in it via AddRuleDescriptions, so the whole document commits or
// rolls back atomically.
func (e *Engine) AddRulesYAML(text string) error {
	descs, err := ParseRulesYAML(text)
	if err != nil {
		return err
	}
	return e.AddRuleDescriptions(descs)
}
