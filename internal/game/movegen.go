package game

import (
	"github.com/samber/lo"

	"github.com/hailam/chessplay/internal/board"
)

// LegalMoves generates every legal move for the side to move: the
// pseudo-legal moves minus those that leave the mover's own king attacked.
func LegalMoves(s board.BoardState) []board.Move {
	return lo.Filter(PseudoLegalMoves(s), func(m board.Move, _ int) bool {
		return !attacksKing(s.Apply(m))
	})
}

// PseudoLegalMoves generates all moves obeying piece movement rules,
// including castling, without checking whether the mover's king ends up
// attacked.
func PseudoLegalMoves(s board.BoardState) []board.Move {
	return generate(s, true)
}

// IsKingAttacked returns true if the king of color c could be captured by
// the other side in s.
func IsKingAttacked(s board.BoardState, c board.Color) bool {
	view := s
	view.SideToMove = c.Other()
	view.EnPassant = board.NoPosition
	return attacksKing(view)
}

// attacksKing returns true if the side to move has a pseudo-legal move
// landing on the opponent's king square.
func attacksKing(s board.BoardState) bool {
	target := s.King(s.SideToMove.Other())
	if !target.InBounds() {
		return false
	}
	for _, m := range generate(s, false) {
		if m.To == target {
			return true
		}
	}
	return false
}

// leavesKingAttacked applies m and reports whether the mover's king is
// attacked afterwards.
func leavesKingAttacked(s board.BoardState, m board.Move) bool {
	return attacksKing(s.Apply(m))
}

// generate generates pseudo-legal moves. Castling moves never capture, so
// attack detection leaves them out.
func generate(s board.BoardState, withCastling bool) []board.Move {
	moves := make([]board.Move, 0, 48)
	us := s.SideToMove

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			from := board.Pos(x, y)
			pc, ok := s.Get(from)
			if !ok || pc.Color != us {
				continue
			}
			if pc.Type == board.Pawn {
				moves = pawnAdvances(s, from, us, moves)
				moves = pawnCaptures(s, from, us, moves)
				continue
			}
			moves = pieceMoves(s, from, pc, moves)
		}
	}

	if withCastling {
		moves = castlingMoves(s, moves)
	}
	return moves
}

// pawnAdvances adds the one square push and, from the starting rank, the
// two square push. Both need empty squares.
func pawnAdvances(s board.BoardState, from board.Position, us board.Color, moves []board.Move) []board.Move {
	step := board.PawnAdvance(us)
	one := from.Add(step)
	if !one.InBounds() {
		return moves
	}
	if _, ok := s.Get(one); ok {
		return moves
	}
	moves = append(moves, board.NewMove(from, one))

	startRank := 1
	if us == board.Black {
		startRank = 6
	}
	if from.Y == startRank {
		two := one.Add(step)
		if _, ok := s.Get(two); !ok {
			moves = append(moves, board.NewMove(from, two))
		}
	}
	return moves
}

// pawnCaptures adds diagonal captures of enemy pieces and the en passant
// capture of the cached target square.
func pawnCaptures(s board.BoardState, from board.Position, us board.Color, moves []board.Move) []board.Move {
	for _, d := range board.PawnCaptures(us) {
		to := from.Add(d)
		if !to.InBounds() {
			continue
		}
		if pc, ok := s.Get(to); ok {
			if pc.Color != us {
				moves = append(moves, board.NewMove(from, to))
			}
			continue
		}
		if to == s.EnPassant {
			moves = append(moves, board.NewMove(from, to))
		}
	}
	return moves
}

// pieceMoves walks every displacement of a non-pawn piece. Sliding pieces
// continue until the edge, a friendly piece (excluded) or an enemy piece
// (included).
func pieceMoves(s board.BoardState, from board.Position, pc board.Piece, moves []board.Move) []board.Move {
	for _, d := range pc.Type.Displacements() {
		to := from.Add(d)
		for to.InBounds() {
			if target, ok := s.Get(to); ok {
				if target.Color != pc.Color {
					moves = append(moves, board.NewMove(from, to))
				}
				break
			}
			moves = append(moves, board.NewMove(from, to))
			if !pc.Type.IsSliding() {
				break
			}
			to = to.Add(d)
		}
	}
	return moves
}

// castlingMoves adds the two square king move for each side whose right is
// still set, whose squares between king and rook are empty, where the king
// is not in check and where the king's first step toward the rook is not
// attacked. The landing square itself is checked by the legality filter.
func castlingMoves(s board.BoardState, moves []board.Move) []board.Move {
	us := s.SideToMove
	king := board.KingHome(us)
	if s.King(us) != king {
		return moves
	}
	if !s.CastlingRights.CanCastle(us, true) && !s.CastlingRights.CanCastle(us, false) {
		return moves
	}
	if IsKingAttacked(s, us) {
		return moves
	}

	for _, kingSide := range [2]bool{true, false} {
		if !s.CastlingRights.CanCastle(us, kingSide) {
			continue
		}
		rook := board.RookHome(us, kingSide)
		dir := 1
		if !kingSide {
			dir = -1
		}

		clear := true
		for x := king.X + dir; x != rook.X; x += dir {
			if _, ok := s.Get(board.Pos(x, king.Y)); ok {
				clear = false
				break
			}
		}
		if !clear {
			continue
		}

		step := board.Pos(king.X+dir, king.Y)
		if leavesKingAttacked(s, board.NewMove(king, step)) {
			continue
		}
		moves = append(moves, board.NewMove(king, board.Pos(king.X+2*dir, king.Y)))
	}
	return moves
}
