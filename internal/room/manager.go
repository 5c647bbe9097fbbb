package room

import (
	"context"
	"errors"
	"fmt"

	"minigames/internal/domain"
	"minigames/internal/game"
	"minigames/internal/logger"
	"minigames/internal/notify"
	"minigames/internal/store"

	"github.com/google/uuid"
)

const defaultWriteRetries = 3

// Manager is the single validated entry point for every room mutation.
// Each mutation is read → rules.Apply → conditional write → publish; the
// store's version check is the only serialization point, so two managers on
// different nodes can safely share one store.
type Manager struct {
	store    store.SessionStore
	notifier notify.Notifier
	retries  int
	clocks   *ClockSupervisor
}

func NewManager(st store.SessionStore, n notify.Notifier, retries int) *Manager {
	if retries <= 0 {
		retries = defaultWriteRetries
	}
	m := &Manager{store: st, notifier: n, retries: retries}
	m.clocks = NewClockSupervisor(m)
	return m
}

// Close stops all running reaction clocks.
func (m *Manager) Close() {
	m.clocks.StopAll()
}

// CreateRoom allocates an empty waiting room.
func (m *Manager) CreateRoom(ctx context.Context, gameType domain.GameType) (domain.Room, error) {
	if _, err := game.ForType(gameType); err != nil {
		return domain.Room{}, fmt.Errorf("%w: %v", game.ErrInvalidAction, err)
	}

	room := domain.Room{
		ID:       uuid.NewString(),
		GameType: gameType,
		Phase:    domain.PhaseWaiting,
	}
	created, err := m.store.Create(ctx, room)
	if err != nil {
		return domain.Room{}, err
	}
	m.publish(ctx, created)
	logger.Info("room created", "room_id", created.ID, "game_type", gameType)
	return created, nil
}

// JoinRoom claims the first free slot for playerID, or returns the slot the
// player already holds. The empty-slot check and the claim ride the same
// conditional write, so two players racing for one slot can never both win.
func (m *Manager) JoinRoom(ctx context.Context, roomID, playerID string) (int, domain.Room, error) {
	if playerID == "" {
		return domain.SlotNone, domain.Room{}, fmt.Errorf("%w: empty player id", game.ErrInvalidAction)
	}

	for attempt := 0; attempt <= m.retries; attempt++ {
		cur, err := m.store.Read(ctx, roomID)
		if err != nil {
			return domain.SlotNone, domain.Room{}, err
		}

		// Idempotent rejoin: no write, no version bump.
		if slot := cur.SlotOf(playerID); slot != domain.SlotNone {
			return slot, cur, nil
		}
		if cur.Full() {
			return domain.SlotNone, domain.Room{}, ErrRoomFull
		}

		next := cur.Clone()
		slot := domain.SlotA
		if next.Players[domain.SlotA] != "" {
			slot = domain.SlotB
		}
		next.Players[slot] = playerID

		// Second player in: hand the room to its rules.
		if next.Full() {
			rules, err := game.ForType(next.GameType)
			if err != nil {
				return domain.SlotNone, domain.Room{}, err
			}
			state, phase, err := rules.Init()
			if err != nil {
				return domain.SlotNone, domain.Room{}, err
			}
			next.State = state
			next.Phase = phase
		}

		committed, err := m.store.Write(ctx, cur.Version, next)
		if errors.Is(err, store.ErrVersionConflict) {
			Conflicts.WithLabelValues("join").Inc()
			continue
		}
		if err != nil {
			return domain.SlotNone, domain.Room{}, err
		}

		Commits.WithLabelValues(string(committed.GameType), "join").Inc()
		m.publish(ctx, committed)
		m.maybeStartClock(committed)
		logger.Info("player joined", "room_id", roomID, "slot", slot)
		return slot, committed, nil
	}
	return domain.SlotNone, domain.Room{}, ErrContention
}

// Act applies one player action. Rule violations are returned as-is and
// leave the room exactly as read; only version conflicts are retried.
func (m *Manager) Act(ctx context.Context, roomID, playerID string, act game.Action) (domain.Room, error) {
	return m.apply(ctx, roomID, func(r *domain.Room) (int, error) {
		slot := r.SlotOf(playerID)
		if slot == domain.SlotNone {
			return 0, game.ErrNotYourTurn
		}
		return slot, nil
	}, act, "act")
}

// systemAct is the clock's entry point: same pipeline, slot SlotNone.
func (m *Manager) systemAct(ctx context.Context, roomID string, act game.Action) (domain.Room, error) {
	return m.apply(ctx, roomID, func(*domain.Room) (int, error) {
		return domain.SlotNone, nil
	}, act, "clock")
}

func (m *Manager) apply(ctx context.Context, roomID string, slotOf func(*domain.Room) (int, error), act game.Action, op string) (domain.Room, error) {
	for attempt := 0; attempt <= m.retries; attempt++ {
		cur, err := m.store.Read(ctx, roomID)
		if err != nil {
			return domain.Room{}, err
		}
		if cur.State == nil || cur.Phase == domain.PhaseWaiting {
			return domain.Room{}, ErrInvalidPhase
		}

		slot, err := slotOf(&cur)
		if err != nil {
			return domain.Room{}, err
		}
		rules, err := game.ForType(cur.GameType)
		if err != nil {
			return domain.Room{}, err
		}

		out, err := rules.Apply(cur.State, cur.Phase, slot, act)
		if err != nil {
			if game.IsRuleViolation(err) {
				RuleViolations.WithLabelValues(string(cur.GameType)).Inc()
			}
			return domain.Room{}, err
		}
		if out.Unchanged {
			// Defined no-op (stale claim, duplicate ready): nothing to
			// commit, nothing to publish.
			return cur, nil
		}

		next := cur.Clone()
		next.State = out.State
		next.Phase = out.Phase
		if out.Winner != nil && next.Winner == nil {
			next.Winner = out.Winner
		}

		committed, err := m.store.Write(ctx, cur.Version, next)
		if errors.Is(err, store.ErrVersionConflict) {
			Conflicts.WithLabelValues(op).Inc()
			continue
		}
		if err != nil {
			return domain.Room{}, err
		}

		Commits.WithLabelValues(string(committed.GameType), op).Inc()
		m.publish(ctx, committed)
		m.maybeStartClock(committed)
		return committed, nil
	}
	return domain.Room{}, ErrContention
}

// ResetRoom reinitializes state/phase/winner of a finished room, keeping
// id, game type and player assignments.
func (m *Manager) ResetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	for attempt := 0; attempt <= m.retries; attempt++ {
		cur, err := m.store.Read(ctx, roomID)
		if err != nil {
			return domain.Room{}, err
		}
		if cur.Phase != domain.PhaseFinished {
			return domain.Room{}, ErrInvalidPhase
		}

		rules, err := game.ForType(cur.GameType)
		if err != nil {
			return domain.Room{}, err
		}
		state, phase, err := rules.Init()
		if err != nil {
			return domain.Room{}, err
		}

		next := cur.Clone()
		next.State = state
		next.Phase = phase
		next.Winner = nil

		committed, err := m.store.Write(ctx, cur.Version, next)
		if errors.Is(err, store.ErrVersionConflict) {
			Conflicts.WithLabelValues("reset").Inc()
			continue
		}
		if err != nil {
			return domain.Room{}, err
		}

		Commits.WithLabelValues(string(committed.GameType), "reset").Inc()
		m.publish(ctx, committed)
		logger.Info("room reset", "room_id", roomID)
		return committed, nil
	}
	return domain.Room{}, ErrContention
}

// GetRoom reads the current snapshot without mutating anything.
func (m *Manager) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	return m.store.Read(ctx, roomID)
}

// ListJoinable returns waiting rooms of a game type, newest first.
func (m *Manager) ListJoinable(ctx context.Context, gameType domain.GameType, limit int) ([]domain.Room, error) {
	return m.store.List(ctx, gameType, domain.PhaseWaiting, limit)
}

// Subscribe delivers every future committed snapshot of the room, in commit
// order, until the subscription is cancelled.
func (m *Manager) Subscribe(ctx context.Context, roomID string, fn func(domain.Room)) (notify.Subscription, error) {
	if _, err := m.store.Read(ctx, roomID); err != nil {
		return nil, err
	}
	return m.notifier.Subscribe(ctx, roomID, fn)
}

func (m *Manager) publish(ctx context.Context, room domain.Room) {
	if err := m.notifier.Publish(ctx, room); err != nil {
		// The commit already happened; subscribers will catch up on the
		// next snapshot. Log and move on.
		logger.Warn("publish failed", "room_id", room.ID, "error", err)
	}
}

func (m *Manager) maybeStartClock(room domain.Room) {
	if room.GameType == domain.GameReaction && room.Phase == domain.PhasePlaying {
		m.clocks.Start(room.ID)
	}
}
