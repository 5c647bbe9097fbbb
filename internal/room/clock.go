package room

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"minigames/internal/domain"
	"minigames/internal/game"
	"minigames/internal/logger"
	"minigames/internal/store"

	"github.com/google/uuid"
)

// DefaultTick is one countdown unit of the reaction game.
const DefaultTick = time.Second

// ClockSupervisor runs at most one clock goroutine per reaction room in the
// playing phase. Every tick and target spawn goes through the manager's
// read-modify-write pipeline, so the phase is re-read before each commit: a
// clock that outlives its room gets a rules error on the next firing and
// stops. Locally cached phase is never trusted.
type ClockSupervisor struct {
	manager *Manager
	tick    time.Duration

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func NewClockSupervisor(m *Manager) *ClockSupervisor {
	return &ClockSupervisor{
		manager: m,
		tick:    DefaultTick,
		running: make(map[string]context.CancelFunc),
	}
}

// SetTick shortens the countdown unit; used by tests.
func (s *ClockSupervisor) SetTick(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// Start launches the clock for a room unless one is already running.
func (s *ClockSupervisor) Start(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[roomID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running[roomID] = cancel
	ActiveClocks.Inc()
	go s.run(ctx, roomID)
}

// Stop cancels the clock of one room, if running.
func (s *ClockSupervisor) Stop(roomID string) {
	s.mu.Lock()
	cancel, ok := s.running[roomID]
	if ok {
		delete(s.running, roomID)
	}
	s.mu.Unlock()
	if ok {
		cancel()
		ActiveClocks.Dec()
	}
}

// StopAll cancels every running clock (shutdown path).
func (s *ClockSupervisor) StopAll() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.running))
	for id, cancel := range s.running {
		cancels = append(cancels, cancel)
		delete(s.running, id)
	}
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
		ActiveClocks.Dec()
	}
}

func (s *ClockSupervisor) run(ctx context.Context, roomID string) {
	defer s.Stop(roomID)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	spawn := time.NewTimer(s.spawnDelay())
	defer spawn.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			room, err := s.manager.systemAct(ctx, roomID, game.Action{Type: game.ActTick})
			if s.done(roomID, room, err) {
				return
			}

		case <-spawn.C:
			act := game.Action{
				Type:     game.ActSpawnTarget,
				TargetID: uuid.NewString(),
				X:        rand.Float64(),
				Y:        rand.Float64(),
			}
			room, err := s.manager.systemAct(ctx, roomID, act)
			if s.done(roomID, room, err) {
				return
			}
			spawn.Reset(s.spawnDelay())
		}
	}
}

// done decides whether the clock should stop after one firing.
func (s *ClockSupervisor) done(roomID string, room domain.Room, err error) bool {
	switch {
	case err == nil:
		return room.Phase != domain.PhasePlaying
	case errors.Is(err, game.ErrGameAlreadyEnded),
		errors.Is(err, ErrInvalidPhase),
		errors.Is(err, store.ErrRoomNotFound):
		return true
	default:
		// Transient store trouble: keep ticking, the next firing re-reads.
		logger.Warn("clock firing failed", "room_id", roomID, "error", err)
		return false
	}
}

// spawnDelay is uniform in [1.0, 2.0) ticks.
func (s *ClockSupervisor) spawnDelay() time.Duration {
	return s.tick + time.Duration(rand.Float64()*float64(s.tick))
}
