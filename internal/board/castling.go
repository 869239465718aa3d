package board

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// castlingFlag returns the single flag for a color and side.
func castlingFlag(c Color, kingSide bool) CastlingRights {
	if c == White {
		if kingSide {
			return WhiteKingSideCastle
		}
		return WhiteQueenSideCastle
	}
	if kingSide {
		return BlackKingSideCastle
	}
	return BlackQueenSideCastle
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castlingFlag(c, kingSide) != 0
}

// KingHome returns the starting square of the king of color c.
func KingHome(c Color) Position {
	return Pos(4, c.HomeRank())
}

// RookHome returns the starting square of the rook used for castling.
func RookHome(c Color, kingSide bool) Position {
	if kingSide {
		return Pos(7, c.HomeRank())
	}
	return Pos(0, c.HomeRank())
}

// Revoke clears every flag whose king or rook no longer stands on its home
// square. Flags are never restored.
func (cr CastlingRights) Revoke(b *Board) CastlingRights {
	for _, c := range [2]Color{White, Black} {
		if pc, _ := b.Get(KingHome(c)); pc != NewPiece(King, c) {
			cr &^= castlingFlag(c, true) | castlingFlag(c, false)
			continue
		}
		for _, kingSide := range [2]bool{true, false} {
			if pc, _ := b.Get(RookHome(c, kingSide)); pc != NewPiece(Rook, c) {
				cr &^= castlingFlag(c, kingSide)
			}
		}
	}
	return cr
}

// IsCastling reports whether a king move from -> to is a castling move.
func IsCastling(pc Piece, from, to Position) bool {
	if pc.Type != King || from.Y != to.Y {
		return false
	}
	dx := to.X - from.X
	return dx == 2 || dx == -2
}

// RookRelocation returns the rook move that accompanies a castling king
// move from kingFrom to kingTo.
func RookRelocation(kingFrom, kingTo Position) (from, to Position) {
	if kingTo.X > kingFrom.X {
		return Pos(7, kingFrom.Y), Pos(kingTo.X-1, kingFrom.Y)
	}
	return Pos(0, kingFrom.Y), Pos(kingTo.X+1, kingFrom.Y)
}
