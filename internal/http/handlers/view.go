package handlers

import (
	"encoding/json"
	"time"

	"minigames/internal/domain"
	"minigames/internal/game"
)

// roomView is the wire shape of a room as one viewer may see it. The state
// payload is redacted per viewer: a poison-candy player never receives the
// index they must avoid.
type roomView struct {
	ID       string          `json:"id"`
	GameType domain.GameType `json:"game_type"`
	Version  int64           `json:"version"`
	Players  [2]string       `json:"players"`
	Phase    domain.Phase    `json:"phase"`
	Winner   *int            `json:"winner,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
	YourSlot *int            `json:"your_slot,omitempty"`
	Updated  time.Time       `json:"updated_at"`
}

func viewFor(r domain.Room, playerID string) roomView {
	v := roomView{
		ID:       r.ID,
		GameType: r.GameType,
		Version:  r.Version,
		Players:  r.Players,
		Phase:    r.Phase,
		Winner:   r.Winner,
		Updated:  r.UpdatedAt,
	}

	slot := domain.SlotNone
	if playerID != "" {
		if s := r.SlotOf(playerID); s != domain.SlotNone {
			slot = s
			v.YourSlot = &s
		}
	}

	if r.State != nil {
		rules, err := game.ForType(r.GameType)
		if err == nil {
			if redacted, err := rules.Redact(r.State, slot); err == nil {
				v.State = redacted
			}
		}
	}
	return v
}
