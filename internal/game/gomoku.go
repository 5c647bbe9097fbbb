package game

import (
	"encoding/json"
	"fmt"

	"minigames/internal/domain"
)

const (
	BoardSize = 15
	WinLength = 5
)

// Board cell values.
const (
	CellEmpty = 0
	CellBlack = 1 // slot A
	CellWhite = 2 // slot B
)

type GomokuState struct {
	Board [][]int `json:"board"`
	Turn  string  `json:"turn"` // TurnA / TurnB
}

type Gomoku struct{}

func (Gomoku) Type() domain.GameType { return domain.GameGomoku }

func (Gomoku) Init() (json.RawMessage, domain.Phase, error) {
	board := make([][]int, BoardSize)
	for i := range board {
		board[i] = make([]int, BoardSize)
	}
	raw, err := json.Marshal(GomokuState{Board: board, Turn: TurnA})
	if err != nil {
		return nil, "", err
	}
	// No setup phase: black moves as soon as both players are in.
	return raw, domain.PhasePlaying, nil
}

func (g Gomoku) Apply(state json.RawMessage, phase domain.Phase, slot int, act Action) (Outcome, error) {
	if phase == domain.PhaseFinished {
		return Outcome{}, ErrGameAlreadyEnded
	}
	if act.Type != ActPlacePiece {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidAction, act.Type)
	}

	var st GomokuState
	if err := json.Unmarshal(state, &st); err != nil {
		return Outcome{}, fmt.Errorf("decode gomoku state: %w", err)
	}

	row, col := act.Row, act.Col
	if row < 0 || row >= len(st.Board) || col < 0 || col >= len(st.Board[row]) {
		return Outcome{}, fmt.Errorf("%w: cell (%d,%d) out of range", ErrInvalidAction, row, col)
	}
	if (st.Turn == TurnA && slot != domain.SlotA) || (st.Turn == TurnB && slot != domain.SlotB) {
		return Outcome{}, ErrNotYourTurn
	}
	if st.Board[row][col] != CellEmpty {
		return Outcome{}, ErrCellOccupied
	}

	color := CellBlack
	if slot == domain.SlotB {
		color = CellWhite
	}

	board := make([][]int, len(st.Board))
	for i := range st.Board {
		board[i] = append([]int(nil), st.Board[i]...)
	}
	board[row][col] = color
	st.Board = board

	if hasFiveInRow(board, row, col, color) {
		w := slot
		return marshalOutcome(st, domain.PhaseFinished, &w)
	}

	if slot == domain.SlotA {
		st.Turn = TurnB
	} else {
		st.Turn = TurnA
	}
	return marshalOutcome(st, domain.PhasePlaying, nil)
}

func (Gomoku) Redact(state json.RawMessage, slot int) (json.RawMessage, error) {
	// Nothing hidden on a gomoku board.
	return state, nil
}

// hasFiveInRow counts contiguous same-color pieces through (row, col) along
// the four line axes, extending both ways from the placed cell.
func hasFiveInRow(board [][]int, row, col, color int) bool {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		count := 1
		for step := 1; step < WinLength; step++ {
			r, c := row+d[0]*step, col+d[1]*step
			if r < 0 || c < 0 || r >= len(board) || c >= len(board[0]) || board[r][c] != color {
				break
			}
			count++
		}
		for step := 1; step < WinLength; step++ {
			r, c := row-d[0]*step, col-d[1]*step
			if r < 0 || c < 0 || r >= len(board) || c >= len(board[0]) || board[r][c] != color {
				break
			}
			count++
		}
		if count >= WinLength {
			return true
		}
	}
	return false
}
