// Package auction holds the auction lifecycle and bid validation engine.
// Everything here is pure except Ledger and Session, which own one auction's mutable state.
package auction

import "time"

// Clock supplies the current instant. Production code uses the server clock; tests inject their own.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the server's wall clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// FixedClock always returns the same instant
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
