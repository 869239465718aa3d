// Package game implements the chess rules on top of package board: legal
// move generation, game status, history with a replay cursor and the clocks.
//
// A Game is not safe for concurrent use. Every mutation (MovePiece,
// navigation, TriggerTimeout, Reset) must be serialised by the owner, and
// reads must not overlap a mutation.
package game

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/timer"
)

// Game owns the history and the timer of one match and caches the legal
// moves of the position at the replay cursor.
type Game struct {
	history     *History
	timer       *timer.Timer
	timed       bool
	replayMoves bool

	legal  []board.Move
	status GameStatus // status at the real end of history

	builder Builder
	logger  zerolog.Logger
}

// New creates an untimed game from the starting position.
func New() *Game {
	g, err := NewBuilder().Build()
	if err != nil {
		panic(err)
	}
	return g
}

// Start starts the clock of the side to move. Playing the first move
// starts it too.
func (g *Game) Start() {
	if g.timer.Started() {
		return
	}
	g.timer.Start()
	g.refresh()
	g.logger.Debug().Str("side", g.history.LastState().SideToMove.String()).Msg("game started")
}

// Reset throws the whole game away and starts over with the original
// settings.
func (g *Game) Reset() {
	b := g.builder
	fresh, err := b.Build()
	if err != nil {
		// The builder already built this game once.
		panic(err)
	}
	*g = *fresh
	g.logger.Debug().Msg("game reset")
}

// ValidateMove checks m against the current position. It returns
// ErrTimeout, ErrGameIsInDraw, ErrOutOfBounds, ErrNoPieceAtPosition or
// ErrInvalidMove, in that order of precedence.
func (g *Game) ValidateMove(m board.Move) error {
	state := g.history.CurrentState()

	if g.status.Kind == Timeout || g.clockExpired(g.history.LastState().SideToMove) {
		return fmt.Errorf("%w: %s has no time left", ErrTimeout, g.history.LastState().SideToMove)
	}
	status := g.status
	if g.replayMoves && !g.history.AtEnd() {
		status = g.history.CurrentStatus()
	}
	if status.IsDraw() {
		return fmt.Errorf("%w: %s", ErrGameIsInDraw, status.Draw)
	}
	if err := state.CheckInBounds(m.From); err != nil {
		return err
	}
	if err := state.CheckInBounds(m.To); err != nil {
		return err
	}
	if err := state.CheckPieceAt(m.From); err != nil {
		return err
	}
	if !g.history.AtEnd() && !g.replayMoves {
		return fmt.Errorf("%w: viewing ply %d of %d", ErrInvalidMove, g.history.Cursor(), g.history.Len())
	}
	if !lo.Contains(g.legal, m) {
		return fmt.Errorf("%w: %s", ErrInvalidMove, m)
	}
	return nil
}

// MovePiece validates and plays the move from -> to. On success the move is
// appended to the history, the legal moves and status are regenerated and
// the clock is handed to the other player (or stopped if the game ended).
func (g *Game) MovePiece(from, to board.Position) error {
	m := board.NewMove(from, to)
	if err := g.ValidateMove(m); err != nil {
		return err
	}

	if !g.history.AtEnd() {
		g.logger.Debug().Int("ply", g.history.Cursor()).Int("dropped", g.history.Len()-g.history.Cursor()).
			Msg("playing from an earlier ply, discarding later turns")
		g.history.Truncate()
		g.timer.SetActive(g.history.LastState().SideToMove)
	}
	if !g.timer.Running() {
		g.timer.Start()
	}

	prev := g.history.LastState()
	next := prev.Apply(m)
	nextLegal := LegalMoves(next)
	check := IsKingAttacked(next, next.SideToMove)
	notation := m.ToSAN(prev, g.legal, check, check && len(nextLegal) == 0)

	progress := g.history.Project(next, m)
	status := g.evaluate(next, nextLegal, progress.HalfmoveClock, progress.Repetitions)
	g.history.AddInfo(next, m, notation, status)
	g.legal = nextLegal
	g.status = status

	if status.IsOver() {
		g.timer.Stop()
	}
	g.timer.NextPlayer()

	g.logger.Debug().Str("move", m.String()).Str("san", notation).Str("status", status.String()).
		Int("ply", g.history.Len()).Msg("move played")
	if status.IsOver() {
		g.logger.Info().Str("status", status.String()).Msg("game over")
	}
	return nil
}

// Back moves the replay cursor one ply back.
func (g *Game) Back() bool {
	ok := g.history.Back()
	g.refresh()
	return ok
}

// Forward moves the replay cursor one ply forward.
func (g *Game) Forward() bool {
	ok := g.history.Forward()
	g.refresh()
	return ok
}

// ToStart moves the replay cursor to the initial position.
func (g *Game) ToStart() {
	g.history.ToStart()
	g.refresh()
}

// Resume moves the replay cursor back to the real end of the game.
func (g *Game) Resume() {
	g.history.Resume()
	g.refresh()
}

// TriggerTimeout stops the clock. If the player to move has no time left
// the status becomes Timeout.
func (g *Game) TriggerTimeout() {
	g.timer.TriggerTimeout()
	g.refresh()
	g.logger.Debug().Str("status", g.status.String()).Msg("timeout triggered")
}

// Status returns the status of the position at the replay cursor.
func (g *Game) Status() GameStatus {
	if g.history.AtEnd() {
		return g.status
	}
	return g.history.CurrentStatus()
}

// Outcome returns the status at the real end of history, wherever the
// replay cursor is.
func (g *Game) Outcome() GameStatus {
	return g.status
}

// LegalMoves returns the legal moves of the position at the replay cursor.
func (g *Game) LegalMoves() []board.Move {
	return append([]board.Move(nil), g.legal...)
}

// State returns the position at the replay cursor.
func (g *Game) State() board.BoardState {
	return g.history.CurrentState()
}

// FEN returns the FEN string of the position at the replay cursor.
func (g *Game) FEN() string {
	return g.history.FEN()
}

// History gives read access to the played turns.
func (g *Game) History() *History {
	return g.history
}

// SideToMove returns the color to move at the replay cursor.
func (g *Game) SideToMove() board.Color {
	return g.history.CurrentState().SideToMove
}

// TimeLeft returns the remaining clock time of color c. Untimed games
// report zero.
func (g *Game) TimeLeft(c board.Color) time.Duration {
	if !g.timed {
		return 0
	}
	return g.timer.Time(c)
}

// Timed reports whether the game is played with a clock.
func (g *Game) Timed() bool {
	return g.timed
}

// refresh regenerates the legal moves for the position at the cursor and
// the live status at the end of history.
func (g *Game) refresh() {
	state := g.history.CurrentState()
	g.legal = LegalMoves(state)

	last, legal := state, g.legal
	if !g.history.AtEnd() {
		last = g.history.LastState()
		legal = LegalMoves(last)
	}
	g.status = g.evaluate(last, legal, g.history.HalfmoveClock(), g.history.Repetitions(last))
}

// evaluate adds the clock to evaluateStatus.
func (g *Game) evaluate(s board.BoardState, legal []board.Move, halfmoves, repetitions int) GameStatus {
	if g.clockExpired(s.SideToMove) {
		return StatusTimeout(s.SideToMove)
	}
	started := g.timer.Started() || g.history.Len() > 0
	return evaluateStatus(s, legal, halfmoves, repetitions, started)
}

func (g *Game) clockExpired(c board.Color) bool {
	return g.timed && g.timer.Started() && g.timer.Expired(c)
}
