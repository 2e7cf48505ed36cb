package httpx

import (
	"testing"
	"time"
)

func TestDateClockFormat(t *testing.T) {
	c := &dateClock{}
	v := c.now()
	parsed, err := time.Parse(dateLayout, v)
	if err != nil {
		t.Fatalf("clock produced %q: %v", v, err)
	}
	if d := time.Since(parsed); d < -2*time.Second || d > 2*time.Second {
		t.Fatalf("clock value %q is not current", v)
	}
}

func TestDateClockCachesWithinSecond(t *testing.T) {
	// Start just past a second boundary so both reads land in the same
	// second.
	time.Sleep(time.Until(time.Now().Truncate(time.Second).Add(1100 * time.Millisecond)))
	c := &dateClock{}
	a := c.now()
	b := c.now()
	if a != b {
		t.Fatalf("values within the same call burst differ: %q vs %q", a, b)
	}
}
