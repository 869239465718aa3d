package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
)

// render draws the viewed position. Last move squares are bracketed and a
// checked king is wrapped in exclamation marks.
func render(g *game.Game, flip bool) string {
	state := g.State()
	marks := lo.SliceToMap(g.Highlights(), func(h game.Highlight) (board.Position, game.HighlightReason) {
		return h.Position, h.Reason
	})

	ranks := []int{7, 6, 5, 4, 3, 2, 1, 0}
	files := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if flip {
		ranks = []int{0, 1, 2, 3, 4, 5, 6, 7}
		files = []int{7, 6, 5, 4, 3, 2, 1, 0}
	}

	var sb strings.Builder
	for _, y := range ranks {
		fmt.Fprintf(&sb, "%d ", y+1)
		for _, x := range files {
			pos := board.Pos(x, y)
			ch := "."
			if pc, ok := state.Get(pos); ok {
				ch = pc.String()
			}
			reason, marked := marks[pos]
			switch {
			case !marked:
				sb.WriteString(" " + ch + " ")
			case reason == game.KingInCheck || reason == game.KingCheckmated:
				sb.WriteString("!" + ch + "!")
			default:
				sb.WriteString("[" + ch + "]")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for _, x := range files {
		sb.WriteString(" " + string(rune('a'+x)) + " ")
	}
	sb.WriteString("\n\n")

	h := g.History()
	fmt.Fprintf(&sb, "ply %d/%d, %s to move: %s\n", h.Cursor(), h.Len(), state.SideToMove, g.Status())
	if out := g.Outcome(); !h.AtEnd() && out.IsOver() {
		fmt.Fprintf(&sb, "final: %s\n", out)
	}
	if g.Timed() {
		fmt.Fprintf(&sb, "White %s  Black %s\n", clock(g.TimeLeft(board.White)), clock(g.TimeLeft(board.Black)))
	}
	return sb.String()
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
