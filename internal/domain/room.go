package domain

import (
	"encoding/json"
	"time"
)

type GameType string

const (
	GamePoisonCandy GameType = "poison_candy"
	GameGomoku      GameType = "gomoku"
	GameReaction    GameType = "reaction"
)

func (t GameType) Valid() bool {
	switch t {
	case GamePoisonCandy, GameGomoku, GameReaction:
		return true
	}
	return false
}

type Phase string

const (
	PhaseWaiting  Phase = "waiting"  // slots still open
	PhaseSetup    Phase = "setup"    // both players present, pre-game input pending
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Slot indexes into Room.Players. SlotNone marks system-driven actions
// (clock ticks, target spawns) that belong to no player.
const (
	SlotA    = 0
	SlotB    = 1
	SlotNone = -1
)

// Room is one persisted game session. Version increases by exactly one on
// every committed write and is the optimistic-concurrency token for all
// mutations.
type Room struct {
	ID        string          `json:"id"`
	GameType  GameType        `json:"game_type"`
	Version   int64           `json:"version"`
	Players   [2]string       `json:"players"` // "" = free slot; slot 0 fills first
	Phase     Phase           `json:"phase"`
	Winner    *int            `json:"winner,omitempty"` // slot index, set once
	State     json.RawMessage `json:"state,omitempty"`  // game-specific payload
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SlotOf returns the slot occupied by playerID, or SlotNone.
func (r *Room) SlotOf(playerID string) int {
	for i, p := range r.Players {
		if p != "" && p == playerID {
			return i
		}
	}
	return SlotNone
}

// Full reports whether both slots are taken.
func (r *Room) Full() bool {
	return r.Players[0] != "" && r.Players[1] != ""
}

// Clone returns a deep copy; State bytes are never shared so a failed
// write can be retried from a fresh read without aliasing.
func (r *Room) Clone() Room {
	cp := *r
	if r.State != nil {
		cp.State = append(json.RawMessage(nil), r.State...)
	}
	if r.Winner != nil {
		w := *r.Winner
		cp.Winner = &w
	}
	return cp
}
