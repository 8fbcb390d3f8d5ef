package clock

import "time"

// Clock abstracts the current time so session expiry can be tested without
// sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the real system time
type SystemClock struct{}

// New creates a new SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
