package notify

import (
	"context"
	"sync"

	"minigames/internal/domain"
)

const subscriberBuffer = 64

// MemoryNotifier is the in-process Notifier used in tests and single-node
// deployments. Each subscriber owns a buffered channel drained by one
// goroutine, so per-room ordering holds without blocking publishers.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[string]map[*memorySub]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string]map[*memorySub]struct{})}
}

type memorySub struct {
	n      *MemoryNotifier
	roomID string
	ch     chan domain.Room
	once   sync.Once
}

func (n *MemoryNotifier) Publish(ctx context.Context, room domain.Room) error {
	// Sends are non-blocking, so holding the lock here is cheap and rules
	// out a send racing an Unsubscribe's channel close.
	n.mu.Lock()
	defer n.mu.Unlock()

	for s := range n.subs[room.ID] {
		select {
		case s.ch <- room.Clone():
		default:
			// Buffer full: drop the oldest so the subscriber converges on
			// the latest snapshot instead of stalling every publisher.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- room.Clone():
			default:
			}
		}
	}
	return nil
}

func (s *memorySub) Unsubscribe() {
	s.once.Do(func() {
		s.n.mu.Lock()
		delete(s.n.subs[s.roomID], s)
		if len(s.n.subs[s.roomID]) == 0 {
			delete(s.n.subs, s.roomID)
		}
		// Closed under the lock; Publish holds it for the whole send.
		close(s.ch)
		s.n.mu.Unlock()
	})
}

func (n *MemoryNotifier) Subscribe(ctx context.Context, roomID string, fn func(domain.Room)) (Subscription, error) {
	s := &memorySub{n: n, roomID: roomID, ch: make(chan domain.Room, subscriberBuffer)}

	n.mu.Lock()
	if n.subs[roomID] == nil {
		n.subs[roomID] = make(map[*memorySub]struct{})
	}
	n.subs[roomID][s] = struct{}{}
	n.mu.Unlock()

	go func() {
		var lastVersion int64
		for room := range s.ch {
			if room.Version <= lastVersion {
				continue // stale or duplicate delivery
			}
			lastVersion = room.Version
			fn(room)
		}
	}()

	return s, nil
}
