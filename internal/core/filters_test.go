package core

import (
	"testing"

	"github.com/flowlattice/cepengine/internal/primitives"
)

func TestChecker_GreaterThanWithAutoRollOver(t *testing.T) {
	counter := NewBasicCounter(1, nil)
	counter.Trigger(150, primitives.SignalContext{})

	chk := NewChecker(2, primitives.CheckerConfig{CheckTarget: "c", Condition: primitives.GreaterThan, CompareTo: 100, AutoRollOver: true}, counter, nil)
	chk.base.outbound = NewSignalSource(nil)
	pos := fireOutbound(t, chk.base.outbound)
	chk.base.negative = NewSignalSource(nil)
	neg := fireOutbound(t, chk.base.negative)

	chk.Trigger(nil, primitives.EventContext(nil))
	if *pos != 1 || *neg != 0 {
		t.Fatalf("expected positive fire, pos=%d neg=%d", *pos, *neg)
	}
	if chk.effective != 200 {
		t.Fatalf("expected threshold rolled to 200, got %d", chk.effective)
	}

	chk.Trigger(nil, primitives.EventContext(nil))
	if *pos != 1 || *neg != 1 {
		t.Fatalf("expected negative fire after rollover, pos=%d neg=%d", *pos, *neg)
	}
}

func TestStringFilter_DictionarySearchCaseInsensitive(t *testing.T) {
	f, err := NewStringFilter(1, primitives.StringFilterConfig{
		Method:  primitives.DictionarySearch,
		MatchTo: []string{"Notepad.exe", "Calc.exe"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.base.outbound = NewSignalSource(nil)
	pos := fireOutbound(t, f.base.outbound)
	f.base.negative = NewSignalSource(nil)
	neg := fireOutbound(t, f.base.negative)

	f.Trigger("NOTEPAD.EXE", primitives.EventContext(nil))
	if *pos != 1 {
		t.Fatalf("expected match, pos=%d", *pos)
	}
	f.Trigger("explorer.exe", primitives.EventContext(nil))
	if *neg != 1 {
		t.Fatalf("expected non-match, neg=%d", *neg)
	}
}

func TestStringFilter_SubstringPosBeyondLength(t *testing.T) {
	f, err := NewStringFilter(1, primitives.StringFilterConfig{
		Method:          primitives.MatchSingle,
		Condition:       primitives.StringEquals,
		MatchTo:         []string{"ab"},
		SubstringPos:    10,
		HasSubstringPos: true,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.base.negative = NewSignalSource(nil)
	neg := fireOutbound(t, f.base.negative)
	f.Trigger("ab", primitives.EventContext(nil))
	if *neg != 1 {
		t.Fatalf("expected negative fire for out-of-range substring pos")
	}
}

func TestIntegerFilter_OneOf(t *testing.T) {
	f := NewIntegerFilter(1, primitives.IntegerFilterConfig{Condition: primitives.OneOf, CompareTo: []int{1, 2, 3}}, nil)
	f.base.outbound = NewSignalSource(nil)
	pos := fireOutbound(t, f.base.outbound)
	f.base.negative = NewSignalSource(nil)
	neg := fireOutbound(t, f.base.negative)

	f.Trigger(2, primitives.EventContext(nil))
	f.Trigger(9, primitives.EventContext(nil))
	if *pos != 1 || *neg != 1 {
		t.Fatalf("expected one match one miss, pos=%d neg=%d", *pos, *neg)
	}
}
