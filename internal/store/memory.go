package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"minigames/internal/domain"
)

// MemoryStore is the in-process SessionStore used in tests and single-node
// deployments without Postgres. Same version semantics as PostgresStore.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]domain.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]domain.Room)}
}

func (s *MemoryStore) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room.Version = 1
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	s.rooms[room.ID] = room.Clone()
	return room, nil
}

func (s *MemoryStore) Read(ctx context.Context, roomID string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryStore) Write(ctx context.Context, expectedVersion int64, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.rooms[room.ID]
	if !ok {
		return domain.Room{}, ErrRoomNotFound
	}
	if cur.Version != expectedVersion {
		return domain.Room{}, ErrVersionConflict
	}
	room.Version = expectedVersion + 1
	room.CreatedAt = cur.CreatedAt
	room.UpdatedAt = time.Now()
	s.rooms[room.ID] = room.Clone()
	return room, nil
}

func (s *MemoryStore) List(ctx context.Context, gameType domain.GameType, phase domain.Phase, limit int) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var res []domain.Room
	for _, room := range s.rooms {
		if room.GameType == gameType && room.Phase == phase {
			res = append(res, room.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
