package primitives

import (
	"reflect"
	"time"
)

// CompareCondition is the comparison a Checker or IntegerFilter performs.
type CompareCondition string

const (
	LessThan    CompareCondition = "LessThan"
	Equals      CompareCondition = "Equals"
	GreaterThan CompareCondition = "GreaterThan"
	OneOf       CompareCondition = "OneOf"
)

// StringMethod selects how a StringFilter matches its input.
type StringMethod string

const (
	MatchSingle      StringMethod = "MatchSingle"
	MatchList        StringMethod = "MatchList"
	DictionarySearch StringMethod = "DictionarySearch"
)

// StringCondition is the comparison a non-dictionary StringFilter applies.
type StringCondition string

const (
	StringEquals     StringCondition = "Equals"
	StringContains   StringCondition = "Contains"
	StringStartsWith StringCondition = "StartsWith"
	StringEndsWith   StringCondition = "EndsWith"
	StringRegex      StringCondition = "Regex"
)

// Frequency selects a TimerSource's tick interval.
type Frequency string

const (
	OneTenthSecond Frequency = "OneTenthSecond"
	Second         Frequency = "Second"
	Minute         Frequency = "Minute"
)

// Duration returns the interval a Frequency corresponds to.
func (f Frequency) Duration() (time.Duration, bool) {
	switch f {
	case OneTenthSecond:
		return 100 * time.Millisecond, true
	case Second:
		return time.Second, true
	case Minute:
		return time.Minute, true
	default:
		return 0, false
	}
}

// --- per-primitive configuration -------------------------------------------------

// BasicCounterConfig has no configuration.
type BasicCounterConfig struct{}

func ParseBasicCounterConfig(params map[string]any) (BasicCounterConfig, error) {
	return BasicCounterConfig{}, nil
}

func (BasicCounterConfig) Equal(BasicCounterConfig) bool { return true }

// CountdownCounterConfig configures CountdownCounter.
type CountdownCounterConfig struct {
	StartFrom int
}

func ParseCountdownCounterConfig(params map[string]any) (CountdownCounterConfig, error) {
	n, ok, err := getInt(params, "StartFrom")
	if err != nil {
		return CountdownCounterConfig{}, err
	}
	if !ok {
		return CountdownCounterConfig{}, ValidationErrorf("CountdownCounter: StartFrom is required")
	}
	if n <= 0 {
		return CountdownCounterConfig{}, ValidationErrorf("CountdownCounter: StartFrom must be positive, got %d", n)
	}
	return CountdownCounterConfig{StartFrom: n}, nil
}

func (c CountdownCounterConfig) Equal(o CountdownCounterConfig) bool { return c == o }

// RepeatCounterConfig configures RepeatCounter.
type RepeatCounterConfig struct {
	RestartAt int
}

func ParseRepeatCounterConfig(params map[string]any) (RepeatCounterConfig, error) {
	n, ok, err := getInt(params, "RestartAt")
	if err != nil {
		return RepeatCounterConfig{}, err
	}
	if !ok || n <= 0 {
		return RepeatCounterConfig{}, ValidationErrorf("RepeatCounter: RestartAt must be a positive integer")
	}
	return RepeatCounterConfig{RestartAt: n}, nil
}

func (c RepeatCounterConfig) Equal(o RepeatCounterConfig) bool { return c == o }

// AccumulatorConfig configures Accumulator.
type AccumulatorConfig struct {
	Threshold  int
	Timeout    time.Duration
	HasTimeout bool
}

func ParseAccumulatorConfig(params map[string]any) (AccumulatorConfig, error) {
	threshold, ok, err := getInt(params, "Threshold")
	if err != nil {
		return AccumulatorConfig{}, err
	}
	if !ok || threshold <= 0 {
		return AccumulatorConfig{}, ValidationErrorf("Accumulator: Threshold must be a positive integer")
	}
	cfg := AccumulatorConfig{Threshold: threshold}
	if ms, ok, err := getInt(params, "Timeout"); err != nil {
		return AccumulatorConfig{}, err
	} else if ok {
		if ms <= 0 {
			return AccumulatorConfig{}, ValidationErrorf("Accumulator: Timeout must be positive")
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
		cfg.HasTimeout = true
	}
	return cfg, nil
}

func (c AccumulatorConfig) Equal(o AccumulatorConfig) bool { return c == o }

// SpeedAlarmConfig configures SpeedAlarm.
type SpeedAlarmConfig struct {
	MaximumSpeed int
	Period       time.Duration
}

func ParseSpeedAlarmConfig(params map[string]any) (SpeedAlarmConfig, error) {
	maxSpeed, ok, err := getInt(params, "MaximumSpeed")
	if err != nil {
		return SpeedAlarmConfig{}, err
	}
	if !ok || maxSpeed <= 0 {
		return SpeedAlarmConfig{}, ValidationErrorf("SpeedAlarm: MaximumSpeed must be a positive integer")
	}
	periodSec, ok, err := getInt(params, "Period")
	if err != nil {
		return SpeedAlarmConfig{}, err
	}
	if !ok || periodSec <= 0 {
		return SpeedAlarmConfig{}, ValidationErrorf("SpeedAlarm: Period must be a positive integer (seconds)")
	}
	return SpeedAlarmConfig{MaximumSpeed: maxSpeed, Period: time.Duration(periodSec) * time.Second}, nil
}

func (c SpeedAlarmConfig) Equal(o SpeedAlarmConfig) bool { return c == o }

// CollectorConfig configures Collector / CollectorInOrder / KeyedCollector
// / KeyedCollectorInOrder — all four share the same shape.
type CollectorConfig struct {
	SourceCount int
	Timeouts    []time.Duration // nil if not supplied
}

func ParseCollectorConfig(params map[string]any) (CollectorConfig, error) {
	n, ok, err := getInt(params, "SourceCount")
	if err != nil {
		return CollectorConfig{}, err
	}
	if !ok || n <= 0 {
		return CollectorConfig{}, ValidationErrorf("Collector: SourceCount must be a positive integer")
	}
	cfg := CollectorConfig{SourceCount: n}
	if raw, present := params["Timeouts"]; present {
		ints, err := asIntSlice(raw)
		if err != nil {
			return CollectorConfig{}, ValidationErrorf("Collector: Timeouts: %v", err)
		}
		if len(ints) != n {
			return CollectorConfig{}, ValidationErrorf("Collector: Timeouts must have SourceCount (%d) entries, got %d", n, len(ints))
		}
		cfg.Timeouts = make([]time.Duration, n)
		for i, ms := range ints {
			cfg.Timeouts[i] = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg, nil
}

func (c CollectorConfig) Equal(o CollectorConfig) bool {
	if c.SourceCount != o.SourceCount {
		return false
	}
	return reflect.DeepEqual(c.Timeouts, o.Timeouts)
}

// CheckerConfig configures Checker.
type CheckerConfig struct {
	CheckTarget  string
	Condition    CompareCondition
	CompareTo    int
	AutoRollOver bool
}

func ParseCheckerConfig(params map[string]any) (CheckerConfig, error) {
	target, ok, err := getString(params, "CheckTarget")
	if err != nil {
		return CheckerConfig{}, err
	}
	if !ok || target == "" {
		return CheckerConfig{}, ValidationErrorf("Checker: CheckTarget is required")
	}
	condStr, ok, err := getString(params, "Condition")
	if err != nil {
		return CheckerConfig{}, err
	}
	if !ok {
		return CheckerConfig{}, ValidationErrorf("Checker: Condition is required")
	}
	cond := CompareCondition(condStr)
	switch cond {
	case LessThan, Equals, GreaterThan:
	default:
		return CheckerConfig{}, ValidationErrorf("Checker: unknown Condition %q", condStr)
	}
	compareTo, ok, err := getInt(params, "CompareTo")
	if err != nil {
		return CheckerConfig{}, err
	}
	if !ok {
		return CheckerConfig{}, ValidationErrorf("Checker: CompareTo is required")
	}
	autoRoll, _, err := getBool(params, "AutoRollOver")
	if err != nil {
		return CheckerConfig{}, err
	}
	return CheckerConfig{CheckTarget: target, Condition: cond, CompareTo: compareTo, AutoRollOver: autoRoll}, nil
}

func (c CheckerConfig) Equal(o CheckerConfig) bool { return c == o }

// StringFilterConfig configures StringFilter.
type StringFilterConfig struct {
	Method          StringMethod
	SubstringPos    int
	HasSubstringPos bool
	Condition       StringCondition
	MatchTo         []string // single entry when Method == MatchSingle
}

func ParseStringFilterConfig(params map[string]any) (StringFilterConfig, error) {
	methodStr, ok, err := getString(params, "Method")
	if err != nil {
		return StringFilterConfig{}, err
	}
	if !ok {
		return StringFilterConfig{}, ValidationErrorf("StringFilter: Method is required")
	}
	method := StringMethod(methodStr)
	cfg := StringFilterConfig{Method: method}

	if pos, present, err := getInt(params, "SubstringPos"); err != nil {
		return StringFilterConfig{}, err
	} else if present {
		cfg.SubstringPos = pos
		cfg.HasSubstringPos = true
	}

	switch method {
	case MatchSingle:
		s, ok, err := getString(params, "MatchTo")
		if err != nil {
			return StringFilterConfig{}, err
		}
		if !ok {
			return StringFilterConfig{}, ValidationErrorf("StringFilter: MatchTo is required for MatchSingle")
		}
		cfg.MatchTo = []string{s}
		if err := cfg.parseNonDictCondition(params); err != nil {
			return StringFilterConfig{}, err
		}
	case MatchList:
		list, err := getStringSlice(params, "MatchTo")
		if err != nil {
			return StringFilterConfig{}, err
		}
		if len(list) == 0 {
			return StringFilterConfig{}, ValidationErrorf("StringFilter: MatchTo must be a non-empty list for MatchList")
		}
		cfg.MatchTo = list
		if err := cfg.parseNonDictCondition(params); err != nil {
			return StringFilterConfig{}, err
		}
	case DictionarySearch:
		list, err := getStringSlice(params, "MatchTo")
		if err != nil {
			return StringFilterConfig{}, err
		}
		if len(list) == 0 {
			return StringFilterConfig{}, ValidationErrorf("StringFilter: MatchTo must be a non-empty list for DictionarySearch")
		}
		cfg.MatchTo = list
	default:
		return StringFilterConfig{}, ValidationErrorf("StringFilter: unknown Method %q", methodStr)
	}
	return cfg, nil
}

func (cfg *StringFilterConfig) parseNonDictCondition(params map[string]any) error {
	condStr, ok, err := getString(params, "Condition")
	if err != nil {
		return err
	}
	if !ok {
		return ValidationErrorf("StringFilter: Condition is required for %s", cfg.Method)
	}
	cond := StringCondition(condStr)
	switch cond {
	case StringEquals, StringContains, StringStartsWith, StringEndsWith, StringRegex:
	default:
		return ValidationErrorf("StringFilter: unknown Condition %q", condStr)
	}
	cfg.Condition = cond
	return nil
}

func (c StringFilterConfig) Equal(o StringFilterConfig) bool {
	if c.Method != o.Method || c.SubstringPos != o.SubstringPos || c.HasSubstringPos != o.HasSubstringPos || c.Condition != o.Condition {
		return false
	}
	return reflect.DeepEqual(c.MatchTo, o.MatchTo)
}

// IntegerFilterConfig configures IntegerFilter.
type IntegerFilterConfig struct {
	Condition CompareCondition
	CompareTo []int // single entry unless Condition == OneOf
}

func ParseIntegerFilterConfig(params map[string]any) (IntegerFilterConfig, error) {
	condStr, ok, err := getString(params, "Condition")
	if err != nil {
		return IntegerFilterConfig{}, err
	}
	if !ok {
		return IntegerFilterConfig{}, ValidationErrorf("IntegerFilter: Condition is required")
	}
	cond := CompareCondition(condStr)
	switch cond {
	case LessThan, Equals, GreaterThan, OneOf:
	default:
		return IntegerFilterConfig{}, ValidationErrorf("IntegerFilter: unknown Condition %q", condStr)
	}
	raw, present := params["CompareTo"]
	if !present {
		return IntegerFilterConfig{}, ValidationErrorf("IntegerFilter: CompareTo is required")
	}
	if cond == OneOf {
		ints, err := asIntSlice(raw)
		if err != nil {
			return IntegerFilterConfig{}, ValidationErrorf("IntegerFilter: CompareTo: %v", err)
		}
		if len(ints) == 0 {
			return IntegerFilterConfig{}, ValidationErrorf("IntegerFilter: CompareTo must be non-empty for OneOf")
		}
		return IntegerFilterConfig{Condition: cond, CompareTo: ints}, nil
	}
	n, ok := asInt(raw)
	if !ok {
		return IntegerFilterConfig{}, ValidationErrorf("IntegerFilter: CompareTo must be an integer for %s", cond)
	}
	return IntegerFilterConfig{Condition: cond, CompareTo: []int{n}}, nil
}

func (c IntegerFilterConfig) Equal(o IntegerFilterConfig) bool {
	if c.Condition != o.Condition {
		return false
	}
	return reflect.DeepEqual(c.CompareTo, o.CompareTo)
}

// EventGeneratorConfig configures EventGenerator. Properties values are
// raw — compiled to ParamTemplates by the rule compiler, which is the
// only place that has a MetaEvent to resolve macros against.
type EventGeneratorConfig struct {
	NewEventName string
	Properties   map[string]any
}

func ParseEventGeneratorConfig(params map[string]any) (EventGeneratorConfig, error) {
	name, ok, err := getString(params, "NewEventName")
	if err != nil {
		return EventGeneratorConfig{}, err
	}
	if !ok || name == "" {
		return EventGeneratorConfig{}, ValidationErrorf("EventGenerator: NewEventName is required")
	}
	cfg := EventGeneratorConfig{NewEventName: name}
	if raw, present := params["Properties"]; present {
		m, ok := raw.(map[string]any)
		if !ok {
			return EventGeneratorConfig{}, ValidationErrorf("EventGenerator: Properties must be a map")
		}
		cfg.Properties = m
	}
	return cfg, nil
}

func (c EventGeneratorConfig) Equal(o EventGeneratorConfig) bool {
	// EventGenerator is never shared; Equal exists
	// only so the type satisfies the same shape as the other configs.
	return false
}

// TimerSourceConfig configures TimerSource.
type TimerSourceConfig struct {
	Frequency Frequency
}

func ParseTimerSourceConfig(params map[string]any) (TimerSourceConfig, error) {
	freqStr, ok, err := getString(params, "Frequency")
	if err != nil {
		return TimerSourceConfig{}, err
	}
	if !ok {
		return TimerSourceConfig{}, ValidationErrorf("TimerSource: Frequency is required")
	}
	freq := Frequency(freqStr)
	if _, ok := freq.Duration(); !ok {
		return TimerSourceConfig{}, ValidationErrorf("TimerSource: unknown Frequency %q", freqStr)
	}
	return TimerSourceConfig{Frequency: freq}, nil
}

func (c TimerSourceConfig) Equal(o TimerSourceConfig) bool { return c == o }
