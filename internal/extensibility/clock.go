package extensibility

import (
	"sync"
	"time"

	"github.com/flowlattice/cepengine/internal/core"
)

// FakeClock is a core.Clock test double that lets a test advance wall
// time deterministically instead of sleeping, mirroring how the teacher's
// extensibility.EventSource tests inject a controllable time source.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

// NewFakeClock returns a FakeClock seeded at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the clock's current, manually-advanced time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and fires every outstanding
// ticker whose interval has elapsed since it was last fired.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		t.maybeFire(now)
	}
}

// NewTicker returns a fake Ticker that only fires in response to Advance.
func (c *FakeClock) NewTicker(d time.Duration) core.Ticker {
	t := &fakeTicker{interval: d, ch: make(chan time.Time, 1), last: c.Now()}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

type fakeTicker struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	stopped  bool
	ch       chan time.Time
}

func (t *fakeTicker) maybeFire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.interval <= 0 {
		return
	}
	for now.Sub(t.last) >= t.interval {
		t.last = t.last.Add(t.interval)
		select {
		case t.ch <- t.last:
		default:
		}
	}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}
