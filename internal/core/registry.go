package core

import (
	"github.com/flowlattice/cepengine/internal/primitives"
)

// BuildContext carries the collaborators a primitive factory needs beyond
// its own configuration: the clock for time-aware primitives, the warning
// sink, the meta-event for EventGenerator, the dispatcher for handing off
// derived events, and — for Checker only — the already-settled Checkable
// primitive its CheckTarget names.
type BuildContext struct {
	Clock        Clock
	Reporter     ErrorReporter
	Meta         primitives.MetaEvent
	Sink         EventSink
	CheckTargets map[string]Checkable
}

// PrimitiveFactory is the open registration point for a primitive type
//: parsing, sharing comparison, and construction are
// kept together so the compiler never special-cases a type name.
type PrimitiveFactory struct {
	// NonTargetable reports whether this type accepts no inbound trigger,
	// exempting it from the "at least one inbound edge" validation rule;
	// the compiler wires such primitives to the synthetic "" SourceEvent
	// instead.
	NonTargetable bool
	// Checkable reports whether this type implements the Checkable
	// capability, i.e. is a legal Checker.CheckTarget.
	Checkable bool
	// ParseConfig validates a rule's raw Parameters map and returns an
	// opaque, comparable configuration value.
	ParseConfig func(params map[string]any) (any, error)
	// ConfigEqual reports whether two configs parsed by this factory are
	// identical for sharing purposes.
	ConfigEqual func(a, b any) bool
	// New constructs the live primitive from its id and parsed config.
	New func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error)
}

// Registry is the open, mutable set of known primitive type names. The
// engine starts with the fourteen built-in kinds registered; embedders may
// register additional types before compiling any rule.
type Registry struct {
	factories map[string]PrimitiveFactory
}

// NewRegistry returns a Registry pre-populated with the built-in
// primitive kinds.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]PrimitiveFactory)}
	r.registerBuiltins()
	return r
}

// Register adds or replaces the factory for typeName.
func (r *Registry) Register(typeName string, f PrimitiveFactory) {
	r.factories[typeName] = f
}

// Lookup returns the factory for typeName.
func (r *Registry) Lookup(typeName string) (PrimitiveFactory, bool) {
	f, ok := r.factories[typeName]
	return f, ok
}

func (r *Registry) registerBuiltins() {
	r.Register("BasicCounter", PrimitiveFactory{
		Checkable: true,
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseBasicCounterConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.BasicCounterConfig).Equal(b.(primitives.BasicCounterConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewBasicCounter(id, bc.Reporter), nil
		},
	})

	r.Register("CountdownCounter", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseCountdownCounterConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.CountdownCounterConfig).Equal(b.(primitives.CountdownCounterConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewCountdownCounter(id, config.(primitives.CountdownCounterConfig), bc.Reporter), nil
		},
	})

	r.Register("RepeatCounter", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseRepeatCounterConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.RepeatCounterConfig).Equal(b.(primitives.RepeatCounterConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewRepeatCounter(id, config.(primitives.RepeatCounterConfig), bc.Reporter), nil
		},
	})

	r.Register("Accumulator", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseAccumulatorConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.AccumulatorConfig).Equal(b.(primitives.AccumulatorConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewAccumulator(id, config.(primitives.AccumulatorConfig), bc.Clock, bc.Reporter), nil
		},
	})

	r.Register("SpeedAlarm", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseSpeedAlarmConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.SpeedAlarmConfig).Equal(b.(primitives.SpeedAlarmConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewSpeedAlarm(id, config.(primitives.SpeedAlarmConfig), bc.Clock, bc.Reporter), nil
		},
	})

	r.Register("Collector", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseCollectorConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.CollectorConfig).Equal(b.(primitives.CollectorConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewCollector(id, config.(primitives.CollectorConfig), bc.Clock, bc.Reporter), nil
		},
	})

	r.Register("CollectorInOrder", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseCollectorConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.CollectorConfig).Equal(b.(primitives.CollectorConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewCollectorInOrder(id, config.(primitives.CollectorConfig), bc.Clock, bc.Reporter), nil
		},
	})

	r.Register("KeyedCollector", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseCollectorConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.CollectorConfig).Equal(b.(primitives.CollectorConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewKeyedCollector(id, config.(primitives.CollectorConfig), bc.Clock, bc.Reporter), nil
		},
	})

	r.Register("KeyedCollectorInOrder", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseCollectorConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.CollectorConfig).Equal(b.(primitives.CollectorConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewKeyedCollectorInOrder(id, config.(primitives.CollectorConfig), bc.Clock, bc.Reporter), nil
		},
	})

	r.Register("Checker", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseCheckerConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.CheckerConfig).Equal(b.(primitives.CheckerConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			cfg := config.(primitives.CheckerConfig)
			target, ok := bc.CheckTargets[cfg.CheckTarget]
			if !ok {
				return nil, primitives.CompileErrorf("Checker: CheckTarget %q is not Checkable or not yet settled", cfg.CheckTarget)
			}
			return NewChecker(id, cfg, target, bc.Reporter), nil
		},
	})

	r.Register("StringFilter", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseStringFilterConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.StringFilterConfig).Equal(b.(primitives.StringFilterConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewStringFilter(id, config.(primitives.StringFilterConfig), bc.Reporter)
		},
	})

	r.Register("IntegerFilter", PrimitiveFactory{
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseIntegerFilterConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.IntegerFilterConfig).Equal(b.(primitives.IntegerFilterConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewIntegerFilter(id, config.(primitives.IntegerFilterConfig), bc.Reporter), nil
		},
	})

	r.Register("EventGenerator", PrimitiveFactory{
		NonTargetable: false,
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseEventGeneratorConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			// EventGenerator output is never shared:
			// always report inequality so the compiler never reuses one.
			return false
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			cfg := config.(primitives.EventGeneratorConfig)
			props := make(map[string]primitives.ParamTemplate, len(cfg.Properties))
			for name, raw := range cfg.Properties {
				tmpl, err := primitives.CompileParamTemplate(raw, bc.Meta)
				if err != nil {
					return nil, err
				}
				props[name] = tmpl
			}
			return NewEventGenerator(id, cfg, props, bc.Meta, bc.Sink, bc.Reporter), nil
		},
	})

	r.Register("TimerSource", PrimitiveFactory{
		NonTargetable: true,
		ParseConfig: func(params map[string]any) (any, error) {
			return primitives.ParseTimerSourceConfig(params)
		},
		ConfigEqual: func(a, b any) bool {
			return a.(primitives.TimerSourceConfig).Equal(b.(primitives.TimerSourceConfig))
		},
		New: func(id PrimitiveID, config any, bc *BuildContext) (Primitive, error) {
			return NewTimerSource(id, config.(primitives.TimerSourceConfig), bc.Clock, bc.Reporter), nil
		},
	})
}
