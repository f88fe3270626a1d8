// Package clock is the single source of "now" for record construction.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System is the process-wide wall clock, always in UTC.
var System Clock = systemClock{}

// Fixed always returns t in UTC. Used in tests and CLI dry runs.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f).UTC() }

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f().UTC() }
