package retry

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// jumpClock advances twenty minutes per reading, simulating a request
// whose retries span far longer than the library default elapsed-time
// cutoff.
type jumpClock struct {
	now time.Time
}

func (c *jumpClock) Now() time.Time {
	c.now = c.now.Add(20 * time.Minute)
	return c.now
}

func TestNewPolicy_NeverStops(t *testing.T) {
	bo := newPolicy(defaultInitialInterval, defaultMaxInterval)
	bo.Clock = &jumpClock{now: time.Now()}
	bo.Reset()

	for i := range 50 {
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			t.Fatalf("NextBackOff returned Stop on attempt %d", i+1)
		}
		if wait <= 0 {
			t.Fatalf("NextBackOff returned non-positive wait %v on attempt %d", wait, i+1)
		}
	}
}

func TestNewPolicy_Intervals(t *testing.T) {
	bo := newPolicy(100*time.Millisecond, time.Second)

	if bo.InitialInterval != 100*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 100ms", bo.InitialInterval)
	}
	if bo.MaxInterval != time.Second {
		t.Errorf("MaxInterval = %v, want 1s", bo.MaxInterval)
	}
	if bo.MaxElapsedTime != 0 {
		t.Errorf("MaxElapsedTime = %v, want 0 (disabled)", bo.MaxElapsedTime)
	}
}
