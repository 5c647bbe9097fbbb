package room

import "errors"

var (
	ErrRoomFull = errors.New("room full")

	// ErrInvalidPhase: the operation is not legal in the room's current
	// phase (reset outside finished, act before both players joined).
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrContention is surfaced after the internal version-conflict retry
	// budget is exhausted. Safe for the caller to retry.
	ErrContention = errors.New("too much contention")
)
