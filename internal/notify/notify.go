package notify

import (
	"context"

	"minigames/internal/domain"
)

// Notifier fans committed room snapshots out to subscribers. Delivery for a
// single room follows commit order and is at-least-once: subscribers must
// drop any snapshot whose version is not greater than the last one applied
// (both implementations here do that before invoking the callback).
type Notifier interface {
	// Publish sends the post-commit snapshot to all subscribers of the room.
	Publish(ctx context.Context, room domain.Room) error

	// Subscribe registers fn for every future commit to roomID. fn runs on
	// the subscription's own goroutine; a slow subscriber delays only itself.
	Subscribe(ctx context.Context, roomID string, fn func(domain.Room)) (Subscription, error)
}

// Subscription stops future delivery when unsubscribed. Safe to call at any
// time, more than once, with no effect on the room itself.
type Subscription interface {
	Unsubscribe()
}
