package board

import "fmt"

// Move is a (from, to) pair. Promotion is not encoded: a pawn reaching the
// back rank always becomes a Queen.
type Move struct {
	From, To Position
}

// NewMove creates a move.
func NewMove(from, to Position) Move {
	return Move{From: from, To: to}
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoPosition, To: NoPosition}

// String returns the coordinate format of the move (e.g., "e2e4").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From.String() + m.To.String()
}

// ParseMove parses a coordinate format move string such as "e2e4".
// A trailing promotion letter is accepted and ignored.
func ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParsePosition(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParsePosition(s[2:4])
	if err != nil {
		return NoMove, err
	}

	return NewMove(from, to), nil
}
