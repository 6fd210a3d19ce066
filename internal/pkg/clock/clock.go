// Package clock supplies the current instant to services that must not call
// time.Now directly, so that cycle math and expiry checks stay testable.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real returns the system time.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

// Now returns the fixed instant.
func (c Fixed) Now() time.Time {
	return c.T
}

// Func adapts a function into a Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time {
	return f()
}
