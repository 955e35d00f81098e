package scan

import (
	"time"
)

// Clock is an interface around time.Now(). It has been added to aid
// unit testing, as all block timings and progress throttling are
// derived from it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock is a Clock that corresponds to the current time of day,
// as reported by the operating system. Durations computed from it use
// the monotonic clock reading.
var SystemClock Clock = systemClock{}
