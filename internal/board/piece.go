package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// HomeRank returns the back rank of the given color (0 for White, 7 for Black).
func (c Color) HomeRank() int {
	if c == White {
		return 0
	}
	return 7
}

// PieceType represents the type of a chess piece. The zero value is
// NoPieceType so that an empty Board needs no initialisation.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{' ', 'p', 'n', 'b', 'r', 'q', 'k'}
	if pt > King {
		return ' '
	}
	return chars[pt]
}

// IsSliding reports whether the piece keeps moving along a vector until blocked.
func (pt PieceType) IsSliding() bool {
	return pt == Bishop || pt == Rook || pt == Queen
}

// Displacements returns the movement table of a non-pawn piece type.
// Pawns are color dependent, see PawnAdvance and PawnCaptures.
func (pt PieceType) Displacements() []Displacement {
	switch pt {
	case Knight:
		return knightOffsets
	case Bishop:
		return bishopDirections
	case Rook:
		return rookDirections
	case Queen, King:
		return royalDirections
	default:
		return nil
	}
}

// Piece combines a PieceType and its owning Color. The zero value is NoPiece.
type Piece struct {
	Type  PieceType
	Color Color
}

// NoPiece is the empty square marker.
var NoPiece = Piece{}

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	return Piece{Type: pt, Color: c}
}

// IsNone returns true for the empty piece.
func (p Piece) IsNone() bool {
	return p.Type == NoPieceType
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p.IsNone() {
		return " "
	}
	c := p.Type.Char()
	if p.Color == White {
		c -= 'a' - 'A'
	}
	return string(c)
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	switch c {
	case 'P':
		return NewPiece(Pawn, color)
	case 'N':
		return NewPiece(Knight, color)
	case 'B':
		return NewPiece(Bishop, color)
	case 'R':
		return NewPiece(Rook, color)
	case 'Q':
		return NewPiece(Queen, color)
	case 'K':
		return NewPiece(King, color)
	default:
		return NoPiece
	}
}

// PlacedPiece pairs a piece with the square it stands on.
type PlacedPiece struct {
	Piece    Piece
	Position Position
}
