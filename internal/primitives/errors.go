package primitives

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers can errors.Is against these while still
// getting a descriptive, wrapped message — the same pattern used
// elsewhere in this codebase for ErrNotFound/ErrExists/ErrInvalidState.
var (
	// ErrParse marks a malformed rule description, unknown property name,
	// or invalid macro — detected before any graph mutation.
	ErrParse = errors.New("parse error")
	// ErrValidation marks a structurally invalid rule: duplicate names,
	// a missing ConnectTo target, an unknown primitive type, a bad
	// parameter, or an untargeted primitive.
	ErrValidation = errors.New("validation error")
	// ErrCompile marks a failure discovered while building the live
	// graph: a cycle, or a primitive rejecting its resolved config.
	ErrCompile = errors.New("compile error")
	// ErrRuntimeWarning marks a trigger-time problem that drops only the
	// current signal: an unknown key in a KeyedCollector parameter, or
	// an integer expected but some other type received.
	ErrRuntimeWarning = errors.New("runtime warning")
)

// ParseErrorf builds a wrapped ErrParse.
func ParseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrParse, args)...)
}

// ValidationErrorf builds a wrapped ErrValidation.
func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrValidation, args)...)
}

// CompileErrorf builds a wrapped ErrCompile.
func CompileErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrCompile, args)...)
}

// RuntimeWarningf builds a wrapped ErrRuntimeWarning.
func RuntimeWarningf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrRuntimeWarning, args)...)
}

func prepend(first error, rest []any) []any {
	out := make([]any, 0, len(rest)+1)
	out = append(out, first)
	out = append(out, rest...)
	return out
}
