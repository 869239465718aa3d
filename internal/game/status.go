package game

import (
	"fmt"

	"github.com/hailam/chessplay/internal/board"
)

// StatusKind is the broad state of a game.
type StatusKind uint8

// Status kinds, in no particular order of precedence.
const (
	NotStarted StatusKind = iota
	Ongoing
	Check
	Checkmate
	Timeout
	Draw
)

// DrawKind tells why a game was drawn.
type DrawKind uint8

// Draw reasons. NoDraw is the zero value for decided or running games.
const (
	NoDraw DrawKind = iota
	Stalemate
	FiftyMoveRule
	Repetition
	InsufficientMaterial
)

// String returns the draw reason.
func (d DrawKind) String() string {
	switch d {
	case Stalemate:
		return "stalemate"
	case FiftyMoveRule:
		return "fifty-move rule"
	case Repetition:
		return "threefold repetition"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return "none"
	}
}

// GameStatus is the status of one position. Color is the side currently
// facing the condition for Check, Checkmate and Timeout.
type GameStatus struct {
	Kind  StatusKind
	Color board.Color
	Draw  DrawKind
}

// Status constructors.
func StatusNotStarted() GameStatus { return GameStatus{Kind: NotStarted} }
func StatusOngoing() GameStatus { return GameStatus{Kind: Ongoing} }
func StatusCheck(c board.Color) GameStatus { return GameStatus{Kind: Check, Color: c} }
func StatusCheckmate(c board.Color) GameStatus { return GameStatus{Kind: Checkmate, Color: c} }
func StatusTimeout(c board.Color) GameStatus { return GameStatus{Kind: Timeout, Color: c} }
func StatusDraw(d DrawKind) GameStatus { return GameStatus{Kind: Draw, Draw: d} }

// IsDraw returns true for every draw variant.
func (s GameStatus) IsDraw() bool {
	return s.Kind == Draw
}

// IsOver returns true once no more moves can be played.
func (s GameStatus) IsOver() bool {
	return s.Kind == Checkmate || s.Kind == Timeout || s.Kind == Draw
}

// Winner returns the winning color of a decided game.
func (s GameStatus) Winner() (board.Color, bool) {
	if s.Kind == Checkmate || s.Kind == Timeout {
		return s.Color.Other(), true
	}
	return board.White, false
}

// String returns a human readable status.
func (s GameStatus) String() string {
	switch s.Kind {
	case NotStarted:
		return "not started"
	case Ongoing:
		return "ongoing"
	case Check:
		return fmt.Sprintf("%s is in check", s.Color)
	case Checkmate:
		return fmt.Sprintf("%s is checkmated", s.Color)
	case Timeout:
		return fmt.Sprintf("%s ran out of time", s.Color)
	case Draw:
		return "draw by " + s.Draw.String()
	default:
		return "unknown"
	}
}

// evaluateStatus derives the status of s from its legal moves and the draw
// counters. Draw rules are checked before mate: the fifty-move counter
// first, then repetition. Insufficient material is only reported when the
// side to move is not already mated or stalemated.
func evaluateStatus(s board.BoardState, legal []board.Move, halfmoves, repetitions int, started bool) GameStatus {
	side := s.SideToMove

	if halfmoves >= 100 {
		return StatusDraw(FiftyMoveRule)
	}
	if repetitions >= 3 {
		return StatusDraw(Repetition)
	}

	attacked := IsKingAttacked(s, side)
	if len(legal) == 0 {
		if attacked {
			return StatusCheckmate(side)
		}
		return StatusDraw(Stalemate)
	}
	if s.IsInsufficientMaterial() {
		return StatusDraw(InsufficientMaterial)
	}

	if !started {
		return StatusNotStarted()
	}
	if attacked {
		return StatusCheck(side)
	}
	return StatusOngoing()
}
