package board

import (
	"fmt"
	"strings"
)

// BoardState is one snapshot of the game: the board plus everything needed
// to generate the next moves. It has value semantics: Apply returns a new
// BoardState and never touches the receiver. All fields are comparable, so
// two states compare equal with == exactly when board, side to move,
// castling rights and en passant target match.
type BoardState struct {
	Board          Board
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Position // Target square for en passant, NoPosition if none

	// King positions, kept in sync with Board by Apply.
	KingSquare [2]Position
}

// NewBoardState creates the starting position.
func NewBoardState() BoardState {
	s, _, _, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return s
}

// FromBoard builds a state around an arbitrary board. Castling rights are
// revoked for any king or rook that is not on its home square and the king
// squares are located by scanning.
func FromBoard(b Board, side Color, rights CastlingRights, ep Position) BoardState {
	s := BoardState{
		Board:          b,
		SideToMove:     side,
		CastlingRights: rights.Revoke(&b),
		EnPassant:      ep,
	}
	s.KingSquare = findKings(&b)
	return s
}

// findKings locates the king positions.
func findKings(b *Board) [2]Position {
	var kings [2]Position
	for _, c := range [2]Color{White, Black} {
		sq, ok := b.Find(NewPiece(King, c))
		if !ok {
			sq = NoPosition
		}
		kings[c] = sq
	}
	return kings
}

// Get returns the piece at pos. Bounds are the caller's responsibility.
func (s BoardState) Get(pos Position) (Piece, bool) {
	return s.Board.Get(pos)
}

// CheckInBounds returns ErrOutOfBounds if pos is off the board.
func (s BoardState) CheckInBounds(pos Position) error {
	if !pos.InBounds() {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, pos.X, pos.Y)
	}
	return nil
}

// CheckPieceAt returns ErrNoPieceAtPosition if pos is empty.
func (s BoardState) CheckPieceAt(pos Position) error {
	if _, ok := s.Board.Get(pos); !ok {
		return fmt.Errorf("%w: %s", ErrNoPieceAtPosition, pos)
	}
	return nil
}

// HasEnPassant returns true if an en passant capture is available this ply.
func (s BoardState) HasEnPassant() bool {
	return s.EnPassant != NoPosition
}

// King returns the cached king square of color c.
func (s BoardState) King(c Color) Position {
	return s.KingSquare[c]
}

// Pieces lists the piece placement.
func (s BoardState) Pieces() []PlacedPiece {
	return s.Board.Pieces()
}

// Apply moves the piece on m.From to m.To and returns the resulting state.
// It handles queen promotion, the rook hop of castling, en passant removal,
// castling right revocation and the next en passant target, then passes the
// turn. The move must already be known legal; an empty origin square is a
// programming error and panics.
func (s BoardState) Apply(m Move) BoardState {
	next := s
	pc, ok := next.Board.Take(m.From)
	if !ok {
		panic(fmt.Sprintf("board: apply %s: no piece at %s", m, m.From))
	}
	us := pc.Color

	if pc.Type == Pawn {
		// En passant: diagonal step onto the empty target square.
		if m.To == s.EnPassant && m.From.X != m.To.X {
			if _, occupied := s.Board.Get(m.To); !occupied {
				next.Board.Take(Pos(m.To.X, m.From.Y))
			}
		}
		if m.To.Y == us.Other().HomeRank() {
			pc = NewPiece(Queen, us)
		}
	}

	next.Board.Set(m.To, pc)

	if pc.Type == King {
		next.KingSquare[us] = m.To
		if IsCastling(pc, m.From, m.To) {
			rookFrom, rookTo := RookRelocation(m.From, m.To)
			rook, _ := next.Board.Take(rookFrom)
			next.Board.Set(rookTo, rook)
		}
	}

	next.CastlingRights = s.CastlingRights.Revoke(&next.Board)

	next.EnPassant = NoPosition
	if pc.Type == Pawn && abs(m.To.Y-m.From.Y) == 2 {
		next.EnPassant = Pos(m.From.X, (m.From.Y+m.To.Y)/2)
	}

	next.SideToMove = s.SideToMove.Other()
	return next
}

// IsInsufficientMaterial returns true for the drawn endings this engine
// recognises: no pawns, rooks or queens, and either at most two knights with
// no bishops, or no knights and at most one bishop per side with matching
// bishop square colors on both sides. Other minor piece endings are not
// flagged.
func (s BoardState) IsInsufficientMaterial() bool {
	knights := 0
	var bishops, light, dark [2]int

	for _, pp := range s.Board.Pieces() {
		switch pp.Piece.Type {
		case Pawn, Rook, Queen:
			return false
		case Knight:
			knights++
		case Bishop:
			c := pp.Piece.Color
			bishops[c]++
			if pp.Position.IsLight() {
				light[c]++
			} else {
				dark[c]++
			}
		}
	}

	if bishops[White]+bishops[Black] == 0 && knights <= 2 {
		return true
	}
	if knights == 0 && bishops[White] <= 1 && bishops[Black] <= 1 &&
		light[White] == light[Black] && dark[White] == dark[Black] {
		return true
	}
	return false
}

// String returns a visual representation of the state.
func (s BoardState) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			pc, ok := s.Board.Get(Pos(file, rank))
			if !ok {
				sb.WriteString(". ")
			} else {
				sb.WriteString(pc.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", s.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", s.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", s.EnPassant)
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
