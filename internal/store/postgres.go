package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minigames/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists rooms in a single table with a version column.
// Every Write is `UPDATE ... WHERE id = $1 AND version = $2`; a zero row
// count is a version conflict, never an overwrite.
type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	room.Version = 1
	err := s.db.QueryRow(ctx,
		`INSERT INTO rooms (id, game_type, version, player_a, player_b, phase, winner, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		room.ID, room.GameType, room.Version,
		room.Players[0], room.Players[1],
		room.Phase, room.Winner, room.State,
	).Scan(&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return domain.Room{}, wrapPgErr("create room", err)
	}
	return room, nil
}

func (s *PostgresStore) Read(ctx context.Context, roomID string) (domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var room domain.Room
	err := s.db.QueryRow(ctx,
		`SELECT id, game_type, version, player_a, player_b, phase, winner, state, created_at, updated_at
		 FROM rooms WHERE id = $1`,
		roomID,
	).Scan(&room.ID, &room.GameType, &room.Version,
		&room.Players[0], &room.Players[1],
		&room.Phase, &room.Winner, &room.State,
		&room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, wrapPgErr("read room", err)
	}
	return room, nil
}

func (s *PostgresStore) Write(ctx context.Context, expectedVersion int64, room domain.Room) (domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	room.Version = expectedVersion + 1
	err := s.db.QueryRow(ctx,
		`UPDATE rooms
		 SET version = $3, player_a = $4, player_b = $5, phase = $6, winner = $7, state = $8, updated_at = now()
		 WHERE id = $1 AND version = $2
		 RETURNING updated_at`,
		room.ID, expectedVersion,
		room.Version, room.Players[0], room.Players[1],
		room.Phase, room.Winner, room.State,
	).Scan(&room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row moved past expectedVersion or it is gone;
		// disambiguate so callers don't retry a deleted room forever.
		if _, readErr := s.Read(ctx, room.ID); errors.Is(readErr, ErrRoomNotFound) {
			return domain.Room{}, ErrRoomNotFound
		}
		return domain.Room{}, ErrVersionConflict
	}
	if err != nil {
		return domain.Room{}, wrapPgErr("write room", err)
	}
	return room, nil
}

func (s *PostgresStore) List(ctx context.Context, gameType domain.GameType, phase domain.Phase, limit int) ([]domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, game_type, version, player_a, player_b, phase, winner, state, created_at, updated_at
		 FROM rooms
		 WHERE game_type = $1 AND phase = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		gameType, phase, limit,
	)
	if err != nil {
		return nil, wrapPgErr("list rooms", err)
	}
	defer rows.Close()

	var res []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.GameType, &room.Version,
			&room.Players[0], &room.Players[1],
			&room.Phase, &room.Winner, &room.State,
			&room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, wrapPgErr("scan room", err)
		}
		res = append(res, room)
	}
	return res, rows.Err()
}

func wrapPgErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrUnavailable)
}
