package utils

import "time"

// Clock supplies the current time. Services take a Clock instead of calling
// time.Now directly so accrual and expiry logic is testable with a fixed
// time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by time.Now
func NewRealClock() Clock {
	return realClock{}
}

// FixedClock is a Clock pinned to a single instant, for tests.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }
