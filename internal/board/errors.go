package board

import "errors"

var (
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrNoPieceAtPosition = errors.New("no piece at position")
)
