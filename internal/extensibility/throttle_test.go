package extensibility

import "testing"

func TestLoadThrottleAllowRespectsBurst(t *testing.T) {
	th := NewLoadThrottle(2)
	allowed := 0
	for i := 0; i < 5; i++ {
		if th.Allow() {
			allowed++
		}
	}
	if allowed == 0 || allowed > 3 {
		t.Fatalf("expected burst-limited allow count, got %d", allowed)
	}
}
