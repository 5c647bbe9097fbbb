package game

import (
	"encoding/json"
	"fmt"

	"minigames/internal/domain"
)

// ReactionCountdown is the match length in ticks (one tick per second).
const ReactionCountdown = 30

// Target is the transient clickable point. Valid until claimed or replaced
// by the next spawn; a discarded target carries no penalty.
type Target struct {
	ID string  `json:"id"`
	X  float64 `json:"x"` // [0,1)
	Y  float64 `json:"y"` // [0,1)
}

type ReactionState struct {
	Ready     [2]bool `json:"ready"`
	Scores    [2]int  `json:"scores"`
	Started   bool    `json:"started"`
	Ended     bool    `json:"ended"`
	Remaining int     `json:"remaining"`
	Target    *Target `json:"target,omitempty"`
}

type Reaction struct{}

func (Reaction) Type() domain.GameType { return domain.GameReaction }

func (Reaction) Init() (json.RawMessage, domain.Phase, error) {
	raw, err := json.Marshal(ReactionState{})
	if err != nil {
		return nil, "", err
	}
	return raw, domain.PhaseSetup, nil
}

func (g Reaction) Apply(state json.RawMessage, phase domain.Phase, slot int, act Action) (Outcome, error) {
	if phase == domain.PhaseFinished {
		return Outcome{}, ErrGameAlreadyEnded
	}

	var st ReactionState
	if err := json.Unmarshal(state, &st); err != nil {
		return Outcome{}, fmt.Errorf("decode reaction state: %w", err)
	}
	if st.Ended {
		return Outcome{}, ErrGameAlreadyEnded
	}

	switch act.Type {
	case ActSetReady:
		return g.setReady(st, slot)
	case ActSpawnTarget:
		return g.spawnTarget(st, phase, slot, act)
	case ActClaimTarget:
		return g.claimTarget(st, slot, act.TargetID)
	case ActTick:
		return g.tick(st, slot)
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidAction, act.Type)
	}
}

func (Reaction) setReady(st ReactionState, slot int) (Outcome, error) {
	if slot != domain.SlotA && slot != domain.SlotB {
		return Outcome{}, ErrInvalidAction
	}
	if st.Ready[slot] {
		// Duplicate ready is a defined no-op.
		return Outcome{Unchanged: true, Phase: domain.PhaseSetup}, nil
	}
	st.Ready[slot] = true

	phase := domain.PhaseSetup
	if st.Ready[0] && st.Ready[1] && !st.Started {
		st.Started = true
		st.Remaining = ReactionCountdown
		phase = domain.PhasePlaying
	}
	return marshalOutcome(st, phase, nil)
}

// spawnTarget replaces the live target. Clock-driven only; the caller
// supplies the id and position so Apply stays deterministic.
func (Reaction) spawnTarget(st ReactionState, phase domain.Phase, slot int, act Action) (Outcome, error) {
	if slot != domain.SlotNone {
		return Outcome{}, ErrInvalidAction
	}
	if !st.Started || phase != domain.PhasePlaying {
		return Outcome{}, ErrInvalidAction
	}
	if act.TargetID == "" || act.X < 0 || act.X >= 1 || act.Y < 0 || act.Y >= 1 {
		return Outcome{}, fmt.Errorf("%w: bad target", ErrInvalidAction)
	}
	st.Target = &Target{ID: act.TargetID, X: act.X, Y: act.Y}
	return marshalOutcome(st, domain.PhasePlaying, nil)
}

func (Reaction) claimTarget(st ReactionState, slot int, targetID string) (Outcome, error) {
	if slot != domain.SlotA && slot != domain.SlotB {
		return Outcome{}, ErrInvalidAction
	}
	if st.Target == nil || st.Target.ID != targetID {
		// Stale claim: the target was already claimed or replaced.
		return Outcome{Unchanged: true, Phase: domain.PhasePlaying}, nil
	}
	st.Scores[slot]++
	st.Target = nil
	return marshalOutcome(st, domain.PhasePlaying, nil)
}

func (Reaction) tick(st ReactionState, slot int) (Outcome, error) {
	if slot != domain.SlotNone {
		return Outcome{}, ErrInvalidAction
	}
	if !st.Started {
		return Outcome{}, ErrInvalidAction
	}

	st.Remaining--
	if st.Remaining > 0 {
		return marshalOutcome(st, domain.PhasePlaying, nil)
	}

	st.Remaining = 0
	st.Ended = true
	st.Target = nil

	var winner *int
	switch {
	case st.Scores[0] > st.Scores[1]:
		w := domain.SlotA
		winner = &w
	case st.Scores[1] > st.Scores[0]:
		w := domain.SlotB
		winner = &w
	}
	return marshalOutcome(st, domain.PhaseFinished, winner)
}

func (Reaction) Redact(state json.RawMessage, slot int) (json.RawMessage, error) {
	// Scores and the live target are public to both players.
	return state, nil
}
