package engine

import "time"

// Clock abstracts time.Now() so that callers outside the engine can be tested
// deterministically. Engine functions never call it; they take a Date.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today reads the clock once and returns the local calendar date.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
