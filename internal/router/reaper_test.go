package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReaperRunSweepsUntilCancelled(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var calls int
	sweep := func(now time.Time) SweepResult {
		calls++
		return SweepResult{}
	}

	reaper := NewReaper(5*time.Millisecond, clock, nil, sweep)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	reaper.Run(ctx)

	assert.GreaterOrEqual(t, calls, 2, "the reaper should tick more than once before cancellation")
}

func TestReaperRunOncePublishesOnlyWhenWorkHappened(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	notifier := &countingNotifier{}

	idleReaper := NewReaper(time.Second, clock, notifier, func(time.Time) SweepResult {
		return SweepResult{}
	})
	idleReaper.runOnce(context.Background())
	assert.Equal(t, 0, notifier.calls, "a no-op sweep publishes nothing")

	busyReaper := NewReaper(time.Second, clock, notifier, func(time.Time) SweepResult {
		return SweepResult{ExpiredQueries: 1}
	})
	busyReaper.runOnce(context.Background())
	assert.Equal(t, 1, notifier.calls, "a sweep that did work publishes one event")
}

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) Publish(context.Context, string, string, string, time.Time) error {
	n.calls++
	return nil
}
