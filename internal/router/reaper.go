package router

import (
	"context"
	"time"

	"github.com/Laisky/zap"

	"github.com/distributed-ai/query-router/library/log"
)

// Reaper is the periodic sweeper that bounds memory and evicts dead state.
// It owns no state of its own beyond its schedule; every sweep runs under
// the Coordinator's mutex via the sweep callback.
type Reaper struct {
	interval time.Duration
	sweep    func(now time.Time) SweepResult
	clock    Clock
	notifier Notifier
	logger   interface {
		Debug(string, ...zap.Field)
		Info(string, ...zap.Field)
		Error(string, ...zap.Field)
	}
}

type SweepResult struct {
	ExpiredQueries int
	EvictedNodes   int
	CappedQueries  int
}

// NewReaper builds a Reaper that calls sweep on every tick.
func NewReaper(interval time.Duration, clock Clock, notifier Notifier, sweep func(now time.Time) SweepResult) *Reaper {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Reaper{
		interval: interval,
		sweep:    sweep,
		clock:    clock,
		notifier: notifier,
		logger:   log.Logger.Named("reaper"),
	}
}

// Run blocks, sweeping every interval, until ctx is cancelled. Any fault
// encountered while sweeping is logged and the loop continues; the Reaper
// never terminates the process on its own.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reaper) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("reaper sweep panicked", zap.Any("recovered", rec))
		}
	}()

	res := r.sweep(r.clock.Now())

	if res.ExpiredQueries == 0 && res.EvictedNodes == 0 && res.CappedQueries == 0 {
		r.logger.Debug("sweep completed with nothing to do")
		return
	}

	r.logger.Info("sweep completed",
		zap.Int("expired_queries", res.ExpiredQueries),
		zap.Int("evicted_nodes", res.EvictedNodes),
		zap.Int("capped_queries", res.CappedQueries),
	)

	if err := r.notifier.Publish(ctx, "reaper.sweep", "", "", r.clock.Now()); err != nil {
		r.logger.Error("publish reaper sweep event", zap.Error(err))
	}
}
