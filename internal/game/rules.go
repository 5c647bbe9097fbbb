package game

import (
	"encoding/json"
	"errors"

	"minigames/internal/domain"
)

// Action names accepted by Apply. Clock-driven actions (tick, spawn_target)
// carry slot domain.SlotNone; everything else names a player slot.
const (
	ActChoosePoison = "choose_poison"
	ActClickCandy   = "click_candy"
	ActPlacePiece   = "place_piece"
	ActSetReady     = "set_ready"
	ActClaimTarget  = "claim_target"
	ActSpawnTarget  = "spawn_target"
	ActTick         = "tick"
)

// Action is the single move envelope shared by all game types. Fields not
// used by a given action type are ignored.
type Action struct {
	Type     string  `json:"type"`
	Index    int     `json:"index"`     // poison pick / candy click
	Row      int     `json:"row"`       // gomoku
	Col      int     `json:"col"`       // gomoku
	TargetID string  `json:"target_id"` // reaction claim / spawn
	X        float64 `json:"x"`         // reaction spawn position, [0,1)
	Y        float64 `json:"y"`
}

// Outcome is the result of one applied action. Unchanged marks the defined
// silent no-ops (stale target claim, duplicate ready) so callers can skip
// the commit entirely.
type Outcome struct {
	State     json.RawMessage
	Phase     domain.Phase
	Winner    *int
	Unchanged bool
}

// Rules is the pure state-transition set for one game type. Apply never
// mutates its inputs; on error the room is left exactly as read.
type Rules interface {
	Type() domain.GameType

	// Init produces the state and phase a room enters once both slots
	// are filled. Also used by reset.
	Init() (json.RawMessage, domain.Phase, error)

	// Apply validates and applies one action from the given slot.
	Apply(state json.RawMessage, phase domain.Phase, slot int, act Action) (Outcome, error)

	// Redact returns the state as the given slot may see it. SlotNone
	// is a spectator view.
	Redact(state json.RawMessage, slot int) (json.RawMessage, error)
}

// ForType returns the rules implementation for a game type.
func ForType(t domain.GameType) (Rules, error) {
	switch t {
	case domain.GamePoisonCandy:
		return PoisonCandy{}, nil
	case domain.GameGomoku:
		return Gomoku{}, nil
	case domain.GameReaction:
		return Reaction{}, nil
	default:
		return nil, errors.New("unknown game type: " + string(t))
	}
}
