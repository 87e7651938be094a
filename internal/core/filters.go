package core

import (
	"regexp"
	"strings"
	"sync"

	"github.com/flowlattice/cepengine/internal/primitives"
)

// Checker reads a Checkable target synchronously on the triggering thread
// and fires primary or negative by comparing the read value against
// CompareTo. AutoRollOver advances the effective threshold by
// the original compare value every time the positive branch fires, letting
// many rules share one underlying counter without resetting it.
type Checker struct {
	*base
	cfg         primitives.CheckerConfig
	checkTarget Checkable
	mu          sync.Mutex
	effective   int
}

// NewChecker constructs a Checker bound to checkTarget, the already-settled
// Checkable primitive named by cfg.CheckTarget.
func NewChecker(id PrimitiveID, cfg primitives.CheckerConfig, checkTarget Checkable, reporter ErrorReporter) *Checker {
	c := &Checker{base: newBase(id, "Checker", reporter), cfg: cfg, checkTarget: checkTarget, effective: cfg.CompareTo}
	c.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { c.Trigger(param, ctx) })
	return c
}

func (c *Checker) Trigger(param any, ctx primitives.SignalContext) {
	val, ok := c.checkTarget.Check(nil)
	if !ok {
		c.warn("Checker: target %d produced no value", c.checkTarget.ID())
		return
	}
	n, ok := toInt(val)
	if !ok {
		c.warn("Checker: target %d produced non-integer value %T", c.checkTarget.ID(), val)
		return
	}

	c.mu.Lock()
	threshold := c.effective
	c.mu.Unlock()

	var match bool
	switch c.cfg.Condition {
	case primitives.LessThan:
		match = n < threshold
	case primitives.Equals:
		match = n == threshold
	case primitives.GreaterThan:
		match = n > threshold
	default:
		c.warn("Checker: unknown condition %q", c.cfg.Condition)
		return
	}

	if match {
		if c.cfg.AutoRollOver {
			c.mu.Lock()
			c.effective += c.cfg.CompareTo
			c.mu.Unlock()
		}
		if c.outbound != nil {
			c.outbound.Trigger(ctx)
		}
		return
	}
	if c.negative != nil {
		c.negative.Trigger(ctx)
	}
}

// StringFilter matches a string input against its configured method and
// condition, firing primary on match and negative otherwise.
// SubstringPos, if set, first trims the input to the suffix starting at
// that position; a position past the string's length yields a negative
// match.
type StringFilter struct {
	*base
	cfg     primitives.StringFilterConfig
	regex   *regexp.Regexp
	matchTo map[string]struct{} // lowercased, DictionarySearch only
}

// NewStringFilter constructs a StringFilter. For Condition == Regex the
// pattern is compiled once at construction time; a bad pattern was already
// rejected at config-parse time by the rule compiler's validation pass in
// the design, but this constructor re-validates defensively since
// config parsing does not compile the regex itself.
func NewStringFilter(id PrimitiveID, cfg primitives.StringFilterConfig, reporter ErrorReporter) (*StringFilter, error) {
	f := &StringFilter{base: newBase(id, "StringFilter", reporter), cfg: cfg}
	f.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { f.Trigger(param, ctx) })
	if cfg.Method == primitives.DictionarySearch {
		f.matchTo = make(map[string]struct{}, len(cfg.MatchTo))
		for _, s := range cfg.MatchTo {
			f.matchTo[strings.ToLower(s)] = struct{}{}
		}
		return f, nil
	}
	if cfg.Condition == primitives.StringRegex {
		re, err := regexp.Compile(cfg.MatchTo[0])
		if err != nil {
			return nil, primitives.CompileErrorf("StringFilter: invalid regex %q: %v", cfg.MatchTo[0], err)
		}
		f.regex = re
	}
	return f, nil
}

func (f *StringFilter) Trigger(param any, ctx primitives.SignalContext) {
	s, ok := param.(string)
	if !ok {
		f.warn("StringFilter: expected string parameter, got %T", param)
		return
	}
	if f.cfg.HasSubstringPos {
		if f.cfg.SubstringPos > len(s) {
			f.fire(false, ctx)
			return
		}
		s = s[f.cfg.SubstringPos:]
	}

	var match bool
	if f.cfg.Method == primitives.DictionarySearch {
		_, match = f.matchTo[strings.ToLower(s)]
	} else {
		match = f.matchOne(s)
		if f.cfg.Method == primitives.MatchList && !match {
			match = false
		}
	}
	f.fire(match, ctx)
}

func (f *StringFilter) matchOne(s string) bool {
	lower := strings.ToLower(s)
	switch f.cfg.Condition {
	case primitives.StringRegex:
		return f.regex.MatchString(s)
	case primitives.StringEquals:
		for _, cand := range f.cfg.MatchTo {
			if lower == strings.ToLower(cand) {
				return true
			}
		}
	case primitives.StringContains:
		for _, cand := range f.cfg.MatchTo {
			if strings.Contains(lower, strings.ToLower(cand)) {
				return true
			}
		}
	case primitives.StringStartsWith:
		for _, cand := range f.cfg.MatchTo {
			if strings.HasPrefix(lower, strings.ToLower(cand)) {
				return true
			}
		}
	case primitives.StringEndsWith:
		for _, cand := range f.cfg.MatchTo {
			if strings.HasSuffix(lower, strings.ToLower(cand)) {
				return true
			}
		}
	}
	return false
}

func (f *StringFilter) fire(match bool, ctx primitives.SignalContext) {
	if match {
		if f.outbound != nil {
			f.outbound.Trigger(ctx)
		}
		return
	}
	if f.negative != nil {
		f.negative.Trigger(ctx)
	}
}

// IntegerFilter matches an integer input against its configured condition,
// firing primary on match and negative otherwise.
type IntegerFilter struct {
	*base
	cfg primitives.IntegerFilterConfig
}

// NewIntegerFilter constructs an IntegerFilter.
func NewIntegerFilter(id PrimitiveID, cfg primitives.IntegerFilterConfig, reporter ErrorReporter) *IntegerFilter {
	f := &IntegerFilter{base: newBase(id, "IntegerFilter", reporter), cfg: cfg}
	f.target = NewSignalTarget(func(param any, ctx primitives.SignalContext) { f.Trigger(param, ctx) })
	return f
}

func (f *IntegerFilter) Trigger(param any, ctx primitives.SignalContext) {
	n, ok := toInt(param)
	if !ok {
		f.warn("IntegerFilter: expected integer parameter, got %T", param)
		return
	}

	var match bool
	switch f.cfg.Condition {
	case primitives.LessThan:
		match = n < f.cfg.CompareTo[0]
	case primitives.Equals:
		match = n == f.cfg.CompareTo[0]
	case primitives.GreaterThan:
		match = n > f.cfg.CompareTo[0]
	case primitives.OneOf:
		for _, c := range f.cfg.CompareTo {
			if n == c {
				match = true
				break
			}
		}
	default:
		f.warn("IntegerFilter: unknown condition %q", f.cfg.Condition)
		return
	}

	if match {
		if f.outbound != nil {
			f.outbound.Trigger(ctx)
		}
		return
	}
	if f.negative != nil {
		f.negative.Trigger(ctx)
	}
}
