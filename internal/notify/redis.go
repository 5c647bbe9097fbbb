package notify

import (
	"context"
	"encoding/json"
	"sync"

	"minigames/internal/domain"
	"minigames/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// RedisNotifier carries snapshots over Redis pub/sub so commits made on one
// node reach subscribers on every node. Channel per room: "room:<id>".
// Redis preserves publish order per channel, which is all the ordering
// contract needs; staleness is still filtered per subscriber by version.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func channelFor(roomID string) string { return "room:" + roomID }

func (n *RedisNotifier) Publish(ctx context.Context, room domain.Room) error {
	payload, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channelFor(room.ID), payload).Err()
}

type redisSub struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	once   sync.Once
}

func (n *RedisNotifier) Subscribe(ctx context.Context, roomID string, fn func(domain.Room)) (Subscription, error) {
	subCtx, cancel := context.WithCancel(context.Background())

	pubsub := n.rdb.Subscribe(subCtx, channelFor(roomID))
	// Force the SUBSCRIBE round trip so a commit right after Subscribe
	// returns is not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, err
	}

	go func() {
		var lastVersion int64
		ch := pubsub.Channel()
		for msg := range ch {
			var room domain.Room
			if err := json.Unmarshal([]byte(msg.Payload), &room); err != nil {
				logger.Warn("notify: bad snapshot payload", "room_id", roomID, "error", err)
				continue
			}
			if room.Version <= lastVersion {
				continue
			}
			lastVersion = room.Version
			fn(room)
		}
	}()

	return &redisSub{pubsub: pubsub, cancel: cancel}, nil
}

func (s *redisSub) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		_ = s.pubsub.Close()
	})
}
