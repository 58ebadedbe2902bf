package testutil

import (
	"time"

	"github.com/juju/clock/testclock"
)

// Epoch is the wall time test clocks start at.
var Epoch = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

// NewClock returns a manual clock starting at Epoch.
//
// Migration timestamps read from it are stable across runs, so recorded log
// rows can be compared exactly. Advance it to separate started_at from
// completed_at.
func NewClock() *testclock.Clock {
	return testclock.NewClock(Epoch)
}

// SteppingClock is a clock that advances by Step every time Now is called.
// Migrations read the time twice per applied change-set, so each change-set
// gets distinct started/completed timestamps without the test orchestrating
// Advance calls.
type SteppingClock struct {
	*testclock.Clock
	Step time.Duration
}

// NewSteppingClock returns a SteppingClock at Epoch.
func NewSteppingClock(step time.Duration) *SteppingClock {
	return &SteppingClock{Clock: NewClock(), Step: step}
}

// Now returns the current time, then advances by Step.
func (c *SteppingClock) Now() time.Time {
	now := c.Clock.Now()
	c.Clock.Advance(c.Step)
	return now
}
