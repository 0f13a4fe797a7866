package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Timer is a pending callback that can be cancelled.
type Timer = clockwork.Timer

// Scheduler runs callbacks after a delay on its own goroutine. Both
// clockwork.NewRealClock and *clockwork.FakeClock satisfy it.
type Scheduler interface {
	Clock
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

var wall = clockwork.NewRealClock()

func (SystemClock) Now() time.Time {
	return wall.Now().UTC()
}

func (SystemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return wall.AfterFunc(d, fn)
}
