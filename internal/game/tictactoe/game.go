package tictactoe

import (
	"fmt"

	"github.com/playroomlabs/gamehub-backend/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// Evaluation results. Tie uses "-" so it can never collide with a mark.
const (
	ResultTie     = "-"
	ResultOngoing = ""
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Game holds the board of a single Tic-Tac-Toe match and whose turn it is.
// It is not safe for concurrent use; the owning session serializes access.
type Game struct {
	Board [9]string
	Turn  string
}

func NewGame() *Game {
	return &Game{
		Board: [9]string{},
		Turn:  PlayerX,
	}
}

// ApplyMove - places mark on cell after validating the move. It never
// advances the turn; the caller does that once it has evaluated the board.
func (that *Game) ApplyMove(mark string, cell int) error {
	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[cell] = mark

	return nil
}

// Evaluate - checks every row, column and diagonal for three in a row.
// Returns the winning mark, ResultTie on a full board with no winner, or
// ResultOngoing otherwise.
func (that *Game) Evaluate() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ResultOngoing
		}
	}

	return ResultTie
}

// AdvanceTurn - hands the turn to the other player.
func (that *Game) AdvanceTurn() {
	that.Turn = toggleMark(that.Turn)
}

// Cells - returns the board as a slice for protocol payloads.
func (that *Game) Cells() []string {
	cells := make([]string, len(that.Board))
	copy(cells, that.Board[:])

	return cells
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
