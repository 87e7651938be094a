package primitives

import "reflect"

// paramElem is one slot of a list-shaped ParamTemplate: either a literal
// value or a compiled macro.
type paramElem struct {
	literal any
	macro   *Macro
}

// ParamTemplate is a per-edge signal parameter template: a
// literal scalar, a literal list, a single macro, or a list mixing
// literals and macros. Compiled once at SignalSource.Connect time;
// Evaluate is called once per trigger.
type ParamTemplate struct {
	hasMacro  bool
	literal   any
	single    *Macro
	listElems []paramElem
	isList    bool
}

// CompileParamTemplate parses raw (as it appears in a ConnectTo's
// SignalParameter, or a Properties value) into a ParamTemplate, resolving
// any macro literals against meta.
func CompileParamTemplate(raw any, meta MetaEvent) (ParamTemplate, error) {
	switch v := raw.(type) {
	case string:
		if len(v) >= len(macroPrefix) && v[:len(macroPrefix)] == macroPrefix {
			m, err := CompileMacro(v, meta)
			if err != nil {
				return ParamTemplate{}, err
			}
			return ParamTemplate{hasMacro: true, single: m}, nil
		}
		return ParamTemplate{literal: v}, nil
	case []any:
		elems := make([]paramElem, len(v))
		hasMacro := false
		for i, e := range v {
			if s, ok := e.(string); ok && len(s) >= len(macroPrefix) && s[:len(macroPrefix)] == macroPrefix {
				m, err := CompileMacro(s, meta)
				if err != nil {
					return ParamTemplate{}, err
				}
				elems[i] = paramElem{macro: m}
				hasMacro = true
			} else {
				elems[i] = paramElem{literal: e}
			}
		}
		return ParamTemplate{hasMacro: hasMacro, listElems: elems, isList: true}, nil
	default:
		return ParamTemplate{literal: raw}, nil
	}
}

// Evaluate resolves the template against ctx, replacing any macros with
// their current value. Literal-only templates never touch ctx.
func (t ParamTemplate) Evaluate(ctx SignalContext) (any, error) {
	if !t.hasMacro {
		if t.isList {
			out := make([]any, len(t.listElems))
			for i, e := range t.listElems {
				out[i] = e.literal
			}
			return out, nil
		}
		return t.literal, nil
	}
	if t.single != nil {
		return t.single.Evaluate(ctx)
	}
	out := make([]any, len(t.listElems))
	for i, e := range t.listElems {
		if e.macro != nil {
			v, err := e.macro.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			out[i] = v
		} else {
			out[i] = e.literal
		}
	}
	return out, nil
}

// Equal implements the sharing predicate's per-edge parameter comparison
//: value-equal for literal templates,
// reference-equal (pointer identity) for compiled macros — two edges
// compiled from identical macro source text are still distinct unless
// they are literally the same connection, which is consistent with (b)
// already requiring the two candidate primitives' inbound source to be
// the very same SignalSource object.
func (t ParamTemplate) Equal(other ParamTemplate) bool {
	if t.hasMacro != other.hasMacro || t.isList != other.isList {
		return false
	}
	if !t.hasMacro {
		if t.isList {
			if len(t.listElems) != len(other.listElems) {
				return false
			}
			for i := range t.listElems {
				if !reflect.DeepEqual(t.listElems[i].literal, other.listElems[i].literal) {
					return false
				}
			}
			return true
		}
		return reflect.DeepEqual(t.literal, other.literal)
	}
	if t.single != nil || other.single != nil {
		return t.single == other.single
	}
	if len(t.listElems) != len(other.listElems) {
		return false
	}
	for i := range t.listElems {
		a, b := t.listElems[i], other.listElems[i]
		if (a.macro != nil) != (b.macro != nil) {
			return false
		}
		if a.macro != nil {
			if a.macro != b.macro {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(a.literal, b.literal) {
			return false
		}
	}
	return true
}
