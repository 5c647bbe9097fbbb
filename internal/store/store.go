package store

import (
	"context"
	"errors"

	"minigames/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")

	// ErrVersionConflict means the conditional write lost a race; callers
	// retry from a fresh read.
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnavailable covers transport failures and timeouts. Never returned
	// for a well-formed write that simply lost the version race.
	ErrUnavailable = errors.New("store unavailable")
)

// SessionStore is the keyed room store. Write is conditional on the version
// the caller read; it is the only serialization point in the system.
type SessionStore interface {
	// Create persists a brand-new room at version 1.
	Create(ctx context.Context, room domain.Room) (domain.Room, error)

	// Read returns the current room snapshot including its version.
	Read(ctx context.Context, roomID string) (domain.Room, error)

	// Write commits room if the stored version still equals
	// expectedVersion, bumping the version by one. Returns the committed
	// snapshot or ErrVersionConflict.
	Write(ctx context.Context, expectedVersion int64, room domain.Room) (domain.Room, error)

	// List returns rooms of a game type in the given phase, newest first.
	List(ctx context.Context, gameType domain.GameType, phase domain.Phase, limit int) ([]domain.Room, error)
}
