// Package timeutil provides a testable abstraction over time operations.
package timeutil

import "time"

// Clock provides the current time. Submission timestamps and date-field
// defaults go through a Clock so tests can pin them.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// FixedClock implements Clock with a fixed time for tests.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time { return c.Time }
