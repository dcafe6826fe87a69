// Package stream holds the outbound event collaborators: the durable
// sink that outbox events are relayed to, and the wake bus that nudges
// workers when new drafts appear.
package stream

import "context"

// Sink delivers one event to the external stream. At-least-once: callers
// only treat an event as delivered when Publish returns nil.
type Sink interface {
	Publish(ctx context.Context, topic string, payload map[string]any) error
	Close() error
}

// WakeBus lets producers wake sleeping workers so fresh drafts are
// picked up before the next poll tick. Delivery is best-effort; the poll
// interval is the safety net.
type WakeBus interface {
	Notify(ctx context.Context) error
	Wake() <-chan struct{}
	Close() error
}
