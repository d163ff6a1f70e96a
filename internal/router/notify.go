package router

import (
	"context"
	"time"

	libredis "github.com/distributed-ai/query-router/library/db/redis"
)

// Notifier receives best-effort lifecycle events for observability,
// decoupling state mutation from side-channel notification: the
// coordinator publishes from a separate goroutine and never inspects the
// return beyond logging a failure.
type Notifier interface {
	Publish(ctx context.Context, kind, subject, detail string, at time.Time) error
}

// NoopNotifier discards every event; it is the default when no external
// notifier (e.g. Redis) is configured.
type NoopNotifier struct{}

// Publish implements Notifier.
func (NoopNotifier) Publish(context.Context, string, string, string, time.Time) error {
	return nil
}

// RedisNotifier adapts library/db/redis.Publisher to Notifier.
type RedisNotifier struct {
	pub *libredis.Publisher
}

// NewRedisNotifier wraps pub as a Notifier.
func NewRedisNotifier(pub *libredis.Publisher) *RedisNotifier {
	return &RedisNotifier{pub: pub}
}

// Publish implements Notifier.
func (n *RedisNotifier) Publish(ctx context.Context, kind, subject, detail string, at time.Time) error {
	return n.pub.Publish(ctx, libredis.Event{
		Kind:      kind,
		Subject:   subject,
		Timestamp: at,
		Detail:    detail,
	})
}
