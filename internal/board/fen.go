package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string into a BoardState together with its
// half-move clock and full-move number.
func ParseFEN(fen string) (BoardState, int, int, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return BoardState{}, 0, 0, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	var b Board

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(&b, parts[0]); err != nil {
		return BoardState{}, 0, 0, err
	}

	// Parse side to move (field 1)
	var side Color
	switch parts[1] {
	case "w":
		side = White
	case "b":
		side = Black
	default:
		return BoardState{}, 0, 0, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	rights, err := parseCastlingRights(parts[2])
	if err != nil {
		return BoardState{}, 0, 0, err
	}

	// Parse en passant square (field 3)
	ep := NoPosition
	if parts[3] != "-" {
		ep, err = ParsePosition(parts[3])
		if err != nil {
			return BoardState{}, 0, 0, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
	}

	// Parse half-move clock (field 4, optional)
	halfmove := 0
	if len(parts) > 4 {
		halfmove, err = strconv.Atoi(parts[4])
		if err != nil || halfmove < 0 {
			return BoardState{}, 0, 0, fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
	}

	// Parse full-move number (field 5, optional)
	fullmove := 1
	if len(parts) > 5 {
		fullmove, err = strconv.Atoi(parts[5])
		if err != nil || fullmove < 1 {
			return BoardState{}, 0, 0, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
	}

	s := FromBoard(b, side, rights, ep)
	if err := s.Validate(); err != nil {
		return BoardState{}, 0, 0, err
	}
	return s, halfmove, fullmove, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(b *Board, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
			} else {
				if c > 0x7f {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				piece := PieceFromChar(byte(c))
				if piece.IsNone() {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				b.Set(Pos(file, rank), piece)
				file++
			}
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(castling string) (CastlingRights, error) {
	if castling == "-" {
		return NoCastling, nil
	}

	var cr CastlingRights
	for _, c := range castling {
		switch c {
		case 'K':
			cr |= WhiteKingSideCastle
		case 'Q':
			cr |= WhiteQueenSideCastle
		case 'k':
			cr |= BlackKingSideCastle
		case 'q':
			cr |= BlackQueenSideCastle
		default:
			return NoCastling, fmt.Errorf("invalid castling character: %c", c)
		}
	}
	return cr, nil
}

// Validate checks that the state can be played from.
func (s BoardState) Validate() error {
	for _, c := range [2]Color{White, Black} {
		if s.Board.Count(King, c) != 1 {
			return fmt.Errorf("%s must have exactly one king", strings.ToLower(c.String()))
		}
	}

	for x := 0; x < 8; x++ {
		for _, y := range [2]int{0, 7} {
			if pc, _ := s.Board.Get(Pos(x, y)); pc.Type == Pawn {
				return fmt.Errorf("pawns cannot be on rank 1 or 8")
			}
		}
	}

	if s.HasEnPassant() && s.EnPassant.Y != 2 && s.EnPassant.Y != 5 {
		return fmt.Errorf("invalid en passant square: %s", s.EnPassant)
	}

	return nil
}

// FEN returns the FEN representation of the state with the given
// half-move clock and full-move number.
func (s BoardState) FEN(halfmove, fullmove int) string {
	var sb strings.Builder

	// Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece, ok := s.Board.Get(Pos(file, rank))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if s.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	// Castling rights
	sb.WriteByte(' ')
	sb.WriteString(s.CastlingRights.String())

	// En passant
	sb.WriteByte(' ')
	sb.WriteString(s.EnPassant.String())

	// Half-move clock and full-move number
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(halfmove))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(fullmove))

	return sb.String()
}
