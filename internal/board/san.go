package board

import "strings"

// ToSAN converts a move to Standard Algebraic Notation. legal holds every
// legal move of the position (used for disambiguation) and check/mate
// describe the position the move leads to.
func (m Move) ToSAN(s BoardState, legal []Move, check, mate bool) string {
	if m == NoMove {
		return "-"
	}

	piece, ok := s.Get(m.From)
	if !ok {
		return m.String() // Fallback to coordinates
	}

	var sb strings.Builder

	if IsCastling(piece, m.From, m.To) {
		if m.To.X > m.From.X {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	} else {
		pt := piece.Type

		// Piece letter (not for pawns)
		if pt != Pawn {
			sb.WriteByte(pt.Char() - ('a' - 'A'))
			sb.WriteString(disambiguation(s, m, pt, legal))
		}

		if m.IsCapture(s) {
			if pt == Pawn {
				// Pawn captures include the file of origin
				sb.WriteByte(byte('a' + m.From.X))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(m.To.String())

		if pt == Pawn && m.To.Y == piece.Color.Other().HomeRank() {
			sb.WriteString("=Q")
		}
	}

	if mate {
		sb.WriteByte('#')
	} else if check {
		sb.WriteByte('+')
	}

	return sb.String()
}

// IsCapture returns true if this move captures a piece in s, including en
// passant.
func (m Move) IsCapture(s BoardState) bool {
	if _, ok := s.Get(m.To); ok {
		return true
	}
	pc, _ := s.Get(m.From)
	return pc.Type == Pawn && m.From.X != m.To.X
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of the same piece type to the same square.
func disambiguation(s BoardState, m Move, pt PieceType, legal []Move) string {
	var candidates []Position
	for _, other := range legal {
		if other.To != m.To || other.From == m.From {
			continue
		}
		if pc, _ := s.Get(other.From); pc.Type == pt {
			candidates = append(candidates, other.From)
		}
	}

	// No ambiguity
	if len(candidates) == 0 {
		return ""
	}

	sameFile := false
	sameRank := false
	for _, sq := range candidates {
		if sq.X == m.From.X {
			sameFile = true
		}
		if sq.Y == m.From.Y {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.X))
	}
	if !sameRank {
		return string(rune('1' + m.From.Y))
	}
	return m.From.String()
}
