package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock time so ledger and scheduler code can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return SystemClock{}
}

// Today truncates the clock's current instant to a UTC calendar date.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// DateOf returns the calendar date of t at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
