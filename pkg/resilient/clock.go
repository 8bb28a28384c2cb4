package resilient

import "time"

// Clock provides an abstraction for time operations to enable testing.
//
// All window, quota, circuit, and cache arithmetic goes through this
// interface so that tests can drive time deterministically with a fake
// clock instead of sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
