package game

import (
	"errors"

	"github.com/hailam/chessplay/internal/board"
)

// Errors returned by ValidateMove and MovePiece. Callers should compare
// with errors.Is; returned errors usually carry extra context.
var (
	ErrOutOfBounds       = board.ErrOutOfBounds
	ErrNoPieceAtPosition = board.ErrNoPieceAtPosition
	ErrInvalidMove       = errors.New("invalid move")
	ErrGameIsInDraw      = errors.New("game is in draw")
	ErrTimeout           = errors.New("time is up")
)
