package game

import "errors"

// Rule violations. None of these mutate state; they are reported to the
// caller and are not retried (retrying without new input cannot succeed).
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrCellAlreadyClicked = errors.New("cell already clicked")
	ErrCellOccupied       = errors.New("cell occupied")
	ErrGameAlreadyEnded   = errors.New("game already ended")
	ErrInvalidAction      = errors.New("invalid action")
)

// IsRuleViolation reports whether err belongs to the rule-violation family.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrCellAlreadyClicked) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrGameAlreadyEnded) ||
		errors.Is(err, ErrInvalidAction)
}
