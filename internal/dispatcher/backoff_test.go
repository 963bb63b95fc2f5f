package dispatcher

import (
	"testing"
	"time"
)

func TestBackoff_NeverExceedsMax(t *testing.T) {
	base := 500 * time.Millisecond
	max := 10 * time.Second
	for attempt := 0; attempt < 10; attempt++ {
		for i := 0; i < 20; i++ {
			d := backoff(base, max, attempt)
			if d > max {
				t.Fatalf("attempt %d: backoff %v exceeds max %v", attempt, d, max)
			}
			if d < 0 {
				t.Fatalf("attempt %d: backoff %v is negative", attempt, d)
			}
		}
	}
}

func TestBackoff_GrowsWithAttempt(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Hour

	// With jitter the single draw is noisy, so compare ceilings: the ceiling
	// of possible backoff at attempt N must exceed the ceiling at attempt 0.
	ceilingAt := func(attempt int) time.Duration {
		var maxSeen time.Duration
		for i := 0; i < 200; i++ {
			if d := backoff(base, max, attempt); d > maxSeen {
				maxSeen = d
			}
		}
		return maxSeen
	}

	if ceilingAt(4) <= ceilingAt(0) {
		t.Fatalf("expected backoff ceiling to grow with attempt count")
	}
}
