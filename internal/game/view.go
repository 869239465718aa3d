package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/hailam/chessplay/internal/board"
)

// HighlightReason says why a square should be highlighted.
type HighlightReason uint8

// Highlight reasons.
const (
	LastMoveFrom HighlightReason = iota
	LastMoveTo
	KingInCheck
	KingCheckmated
)

// String returns the reason name.
func (r HighlightReason) String() string {
	switch r {
	case LastMoveFrom:
		return "last-move-from"
	case LastMoveTo:
		return "last-move-to"
	case KingInCheck:
		return "check"
	case KingCheckmated:
		return "checkmate"
	default:
		return "unknown"
	}
}

// Highlight is a square to draw attention to.
type Highlight struct {
	Position board.Position
	Reason   HighlightReason
}

// Pieces returns the piece placement at the replay cursor.
func (g *Game) Pieces() []board.PlacedPiece {
	return g.history.CurrentState().Pieces()
}

// Destinations returns the squares the piece on from can legally move to.
func (g *Game) Destinations(from board.Position) []board.Position {
	return lo.FilterMap(g.legal, func(m board.Move, _ int) (board.Position, bool) {
		return m.To, m.From == from
	})
}

// Highlights returns the last move squares and the king square of a
// checked or mated king for the position at the replay cursor.
func (g *Game) Highlights() []Highlight {
	var out []Highlight
	if t, ok := g.history.CurrentTurn(); ok {
		out = append(out,
			Highlight{Position: t.Move.From, Reason: LastMoveFrom},
			Highlight{Position: t.Move.To, Reason: LastMoveTo},
		)
	}

	status := g.Status()
	king := g.history.CurrentState().King(status.Color)
	switch status.Kind {
	case Check:
		out = append(out, Highlight{Position: king, Reason: KingInCheck})
	case Checkmate:
		out = append(out, Highlight{Position: king, Reason: KingCheckmated})
	}
	return out
}

// Rounds returns one line per full move, e.g. "1. e4 e5". A game started
// with Black to move opens with "1... e5".
func (g *Game) Rounds() []string {
	notations := lo.Map(g.history.Turns(), func(t Turn, _ int) string {
		return t.Notation
	})
	if len(notations) == 0 {
		return nil
	}

	if g.history.FirstMover() == board.Black {
		notations = append([]string{"..."}, notations...)
	}

	first := g.history.StartFullmove()
	return lo.Map(lo.Chunk(notations, 2), func(pair []string, i int) string {
		line := fmt.Sprintf("%d. %s", first+i, strings.Join(pair, " "))
		return strings.Replace(line, ". ... ", "... ", 1)
	})
}
