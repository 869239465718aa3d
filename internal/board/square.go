// Package board implements the chess board, its pieces and the snapshot
// (BoardState) that a single move transforms into the next one.
package board

import "fmt"

// Position is a board coordinate. X is the file (0=a, 7=h) and Y is the
// rank (0=1st rank, 7=8th rank). Bounds are not enforced by the type.
type Position struct {
	X, Y int
}

// NoPosition marks the absence of a square (e.g. no en passant target).
var NoPosition = Position{X: -1, Y: -1}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// InBounds returns true if the position lies on the 8x8 board.
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X <= 7 && p.Y >= 0 && p.Y <= 7
}

// Add returns the position shifted by d.
func (p Position) Add(d Displacement) Position {
	return Position{X: p.X + d.DX, Y: p.Y + d.DY}
}

// IsLight returns true if the square is a light square (h1 is light).
func (p Position) IsLight() bool {
	return (p.X+p.Y)%2 == 1
}

// String returns the algebraic notation for the position (e.g., "e4").
func (p Position) String() string {
	if !p.InBounds() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+p.X, '1'+p.Y)
}

// ParsePosition parses algebraic notation (e.g., "e4") into a Position.
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return NoPosition, fmt.Errorf("invalid square: %s", s)
	}

	p := Position{X: int(s[0]) - 'a', Y: int(s[1]) - '1'}
	if !p.InBounds() {
		return NoPosition, fmt.Errorf("invalid square: %s", s)
	}
	return p, nil
}

// Displacement is a movement vector between two positions.
type Displacement struct {
	DX, DY int
}

// Static movement tables.
var (
	rookDirections = []Displacement{
		{0, 1}, {0, -1}, {1, 0}, {-1, 0},
	}
	bishopDirections = []Displacement{
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	royalDirections = []Displacement{
		{0, 1}, {0, -1}, {1, 0}, {-1, 0},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	knightOffsets = []Displacement{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
)

// PawnAdvance returns the single-step advance vector for a pawn of color c.
func PawnAdvance(c Color) Displacement {
	if c == White {
		return Displacement{0, 1}
	}
	return Displacement{0, -1}
}

// PawnCaptures returns the two diagonal capture vectors for a pawn of color c.
func PawnCaptures(c Color) [2]Displacement {
	dy := PawnAdvance(c).DY
	return [2]Displacement{{-1, dy}, {1, dy}}
}
