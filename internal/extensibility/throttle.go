package extensibility

import (
	"context"

	"golang.org/x/time/rate"
)

// LoadThrottle paces synthetic event injection in concurrency tests so
// many goroutines can push events through ProcessEvent without turning
// into a tight, scheduler-starving loop. It wraps golang.org/x/time/rate
// the same way the retrieval pack's polling-loop controller throttles its
// own reconcile requests.
type LoadThrottle struct {
	limiter *rate.Limiter
}

// NewLoadThrottle returns a LoadThrottle allowing up to eventsPerSecond
// sustained events, with a burst of the same size.
func NewLoadThrottle(eventsPerSecond int) *LoadThrottle {
	return &LoadThrottle{limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), eventsPerSecond)}
}

// Wait blocks until the throttle permits one more event, or ctx is
// cancelled.
func (t *LoadThrottle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Allow reports whether an event may proceed right now without blocking.
func (t *LoadThrottle) Allow() bool {
	return t.limiter.Allow()
}
