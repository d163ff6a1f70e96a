// Package redis provides the best-effort lifecycle-event publisher used by
// the router's Notifier hook. It never reads state back, so it cannot
// become a persistence or replication path for router state.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "query-router/"

// Channel is the pub/sub channel external dashboards can subscribe to.
const Channel = keyPrefix + "events"

// Publisher publishes fire-and-forget JSON lifecycle events to Redis.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Publisher against the given Redis options.
func NewPublisher(opt *redis.Options) *Publisher {
	return &Publisher{rdb: redis.NewClient(opt)}
}

// Event is one router lifecycle notification.
type Event struct {
	Kind      string    `json:"kind"` // e.g. "query.submit", "query.end", "reaper.sweep"
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Publish serializes and publishes ev. Failures are returned, not
// retried — callers treat this as best-effort and only log on error.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal router event")
	}

	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish event to channel `%s`", Channel)
	}

	return nil
}
