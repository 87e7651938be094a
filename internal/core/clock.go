package core

import "time"

// Ticker abstracts time.Ticker so TimerSource (and tests) can be driven
// by something other than a real platform timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall-clock time for every time-aware primitive
// (Accumulator, SpeedAlarm, Collector/CollectorInOrder/KeyedCollector
// timeouts, TimerSource). realClock below is the platform-timer-backed
// default; a fake, manually-advanced implementation for tests lives in
// internal/extensibility.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// realClock is the default Clock, backed by the platform timer.
type realClock struct{}

// RealClock returns the default, platform-timer-backed Clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }
func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}
