package board

// Board is an 8x8 grid of optional pieces indexed [Y][X]. It has no rule
// knowledge; BoardState.Apply is the only thing that moves pieces around
// during play.
type Board [8][8]Piece

// Get returns the piece at p and whether the square is occupied.
// p must be in bounds.
func (b *Board) Get(p Position) (Piece, bool) {
	pc := b[p.Y][p.X]
	return pc, !pc.IsNone()
}

// Set places pc on p, replacing whatever was there.
func (b *Board) Set(p Position, pc Piece) {
	b[p.Y][p.X] = pc
}

// Take removes and returns the piece at p.
func (b *Board) Take(p Position) (Piece, bool) {
	pc, ok := b.Get(p)
	b[p.Y][p.X] = NoPiece
	return pc, ok
}

// Find returns the first square holding pc, scanning from a1.
func (b *Board) Find(pc Piece) (Position, bool) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if b[y][x] == pc {
				return Pos(x, y), true
			}
		}
	}
	return NoPosition, false
}

// Pieces lists every occupied square, rank 1 first.
func (b *Board) Pieces() []PlacedPiece {
	var out []PlacedPiece
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if pc := b[y][x]; !pc.IsNone() {
				out = append(out, PlacedPiece{Piece: pc, Position: Pos(x, y)})
			}
		}
	}
	return out
}

// Count returns how many pieces of the given type and color are on the board.
func (b *Board) Count(pt PieceType, c Color) int {
	n := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if pc := b[y][x]; pc.Type == pt && pc.Color == c {
				n++
			}
		}
	}
	return n
}
