package game

import (
	"encoding/json"
	"fmt"

	"minigames/internal/domain"
)

const CandyCount = 25

// Turn markers inside PoisonCandyState.
const (
	TurnChoosePoisonA = "choose_poison_a"
	TurnChoosePoisonB = "choose_poison_b"
	TurnA             = "turn_a"
	TurnB             = "turn_b"
)

type Candy struct {
	Clicked bool `json:"clicked"`
}

// PoisonCandyState holds both hidden poison picks. PoisonA is slot A's pick
// (the candy slot B must avoid) and vice versa; Redact strips the pick a
// viewer is not allowed to see.
type PoisonCandyState struct {
	Candies []Candy `json:"candies"`
	PoisonA *int    `json:"poison_a,omitempty"`
	PoisonB *int    `json:"poison_b,omitempty"`
	Turn    string  `json:"turn"`
}

type PoisonCandy struct{}

func (PoisonCandy) Type() domain.GameType { return domain.GamePoisonCandy }

func (PoisonCandy) Init() (json.RawMessage, domain.Phase, error) {
	st := PoisonCandyState{
		Candies: make([]Candy, CandyCount),
		Turn:    TurnChoosePoisonA,
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, "", err
	}
	return raw, domain.PhaseSetup, nil
}

func (g PoisonCandy) Apply(state json.RawMessage, phase domain.Phase, slot int, act Action) (Outcome, error) {
	if phase == domain.PhaseFinished {
		return Outcome{}, ErrGameAlreadyEnded
	}

	var st PoisonCandyState
	if err := json.Unmarshal(state, &st); err != nil {
		return Outcome{}, fmt.Errorf("decode poison candy state: %w", err)
	}

	switch act.Type {
	case ActChoosePoison:
		if phase != domain.PhaseSetup {
			return Outcome{}, ErrInvalidAction
		}
		return g.choosePoison(st, slot, act.Index)
	case ActClickCandy:
		if phase != domain.PhasePlaying {
			return Outcome{}, ErrInvalidAction
		}
		return g.clickCandy(st, slot, act.Index)
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidAction, act.Type)
	}
}

func (PoisonCandy) choosePoison(st PoisonCandyState, slot, index int) (Outcome, error) {
	if index < 0 || index >= len(st.Candies) {
		return Outcome{}, fmt.Errorf("%w: index %d out of range", ErrInvalidAction, index)
	}

	switch st.Turn {
	case TurnChoosePoisonA:
		if slot != domain.SlotA {
			return Outcome{}, ErrNotYourTurn
		}
		st.PoisonA = &index
		st.Turn = TurnChoosePoisonB
		return marshalOutcome(st, domain.PhaseSetup, nil)
	case TurnChoosePoisonB:
		if slot != domain.SlotB {
			return Outcome{}, ErrNotYourTurn
		}
		st.PoisonB = &index
		st.Turn = TurnA
		return marshalOutcome(st, domain.PhasePlaying, nil)
	default:
		return Outcome{}, ErrInvalidAction
	}
}

func (PoisonCandy) clickCandy(st PoisonCandyState, slot, index int) (Outcome, error) {
	if index < 0 || index >= len(st.Candies) {
		return Outcome{}, fmt.Errorf("%w: index %d out of range", ErrInvalidAction, index)
	}
	if (st.Turn == TurnA && slot != domain.SlotA) || (st.Turn == TurnB && slot != domain.SlotB) {
		return Outcome{}, ErrNotYourTurn
	}
	if st.Candies[index].Clicked {
		return Outcome{}, ErrCellAlreadyClicked
	}

	candies := make([]Candy, len(st.Candies))
	copy(candies, st.Candies)
	candies[index].Clicked = true
	st.Candies = candies

	// Clicking the candy the opponent picked for you makes the opponent
	// win.
	if slot == domain.SlotA && st.PoisonB != nil && index == *st.PoisonB {
		w := domain.SlotB
		return marshalOutcome(st, domain.PhaseFinished, &w)
	}
	if slot == domain.SlotB && st.PoisonA != nil && index == *st.PoisonA {
		w := domain.SlotA
		return marshalOutcome(st, domain.PhaseFinished, &w)
	}

	if slot == domain.SlotA {
		st.Turn = TurnB
	} else {
		st.Turn = TurnA
	}
	return marshalOutcome(st, domain.PhasePlaying, nil)
}

// Redact hides the poison index the viewer must avoid: slot A never sees
// PoisonB, slot B never sees PoisonA, spectators see neither.
func (PoisonCandy) Redact(state json.RawMessage, slot int) (json.RawMessage, error) {
	var st PoisonCandyState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("decode poison candy state: %w", err)
	}
	if slot != domain.SlotA {
		st.PoisonA = nil
	}
	if slot != domain.SlotB {
		st.PoisonB = nil
	}
	return json.Marshal(st)
}

func marshalOutcome(st any, phase domain.Phase, winner *int) (Outcome, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{State: raw, Phase: phase, Winner: winner}, nil
}
