package router

import (
	"sync"
	"time"

	gutils "github.com/Laisky/go-utils/v6"
)

// Clock is the coordinator's time source. Ages and timeouts are always
// computed as differences against the same Clock, so a wall clock or a
// monotonic source both work; absolute values are informational only.
type Clock interface {
	Now() time.Time
}

// systemClock defers to the process-wide clock that go-utils keeps
// refreshed on a background ticker (see gutils.SetupClock), avoiding a
// syscall on every Now() call.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return gutils.Clock.GetUTCNow()
}

// SystemClock is the production Clock.
var SystemClock Clock = systemClock{}

// ManualClock is a Clock implementations can advance deterministically;
// used by tests that exercise timeouts and eviction without sleeping.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the clock's current value.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
