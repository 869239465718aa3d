package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chessplay/internal/analysis"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/relay"
	"github.com/hailam/chessplay/internal/storage"
)

var (
	ErrNotYourTurn = errors.New("waiting for the opponent")
	ErrOutOfSync   = errors.New("relayed game out of sync")
	ErrNoEngine    = errors.New("no analysis engine configured")
)

// Publisher sends locally played moves to the opponent.
type Publisher interface {
	Publish(ply int, m board.Move, fen string) error
}

// Analyzer evaluates a FEN position.
type Analyzer interface {
	Analyze(ctx context.Context, fen string, depth int) (analysis.Result, error)
}

// Recorder keeps results of finished games.
type Recorder interface {
	RecordGame(storage.Result) error
}

// Options configures a Session.
type Options struct {
	Builder *game.Builder
	// Local is the color played at this terminal. When HasLocal is false
	// both colors are.
	Local    board.Color
	HasLocal bool
	Flip     bool

	Relay  Publisher
	Engine Analyzer
	Depth  int
	Store  Recorder
}

// Session serialises every access to a Game. The terminal, the clock poller
// and the relay subscriber all go through it.
type Session struct {
	mu       sync.Mutex
	game     *game.Game
	opts     Options
	started  time.Time
	recorded bool
	// pending holds the ending of a hot-seat game until it can no longer
	// be taken back.
	pending *storage.Result
}

// NewSession builds the game. Hot-seat games may be continued from an
// earlier ply; relayed games may not.
func NewSession(opts Options) (*Session, error) {
	if opts.Builder == nil {
		opts.Builder = game.NewBuilder()
	}
	if opts.Depth <= 0 {
		opts.Depth = 12
	}
	g, err := opts.Builder.WithReplayMoves(!opts.HasLocal).Build()
	if err != nil {
		return nil, err
	}
	return &Session{game: g, opts: opts, started: time.Now()}, nil
}

// Move plays a local move and relays it.
func (s *Session) Move(m board.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.HasLocal && s.game.History().LastState().SideToMove != s.opts.Local {
		return ErrNotYourTurn
	}
	branching := !s.game.History().AtEnd()
	if err := s.game.MovePiece(m.From, m.To); err != nil {
		return err
	}
	if branching && s.pending != nil {
		log.Debug().Str("status", s.pending.Status.String()).Msg("ending taken back")
		s.pending = nil
	}
	s.finish()

	if s.opts.Relay != nil {
		if err := s.opts.Relay.Publish(s.game.History().Len(), m, s.game.FEN()); err != nil {
			return err
		}
	}
	return nil
}

// ApplyRemote plays a move received from the opponent. The view jumps to
// the end of the game first.
func (s *Session) ApplyRemote(mm relay.MoveMessage) error {
	m, err := mm.Move()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expected := s.game.History().Len() + 1
	if mm.Ply != expected {
		return fmt.Errorf("%w: got ply %d, expected %d", ErrOutOfSync, mm.Ply, expected)
	}
	if s.opts.HasLocal && s.game.History().LastState().SideToMove == s.opts.Local {
		return fmt.Errorf("%w: opponent moved on our turn", ErrOutOfSync)
	}

	s.game.Resume()
	if err := s.game.MovePiece(m.From, m.To); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfSync, err)
	}
	s.finish()

	if mm.FEN != "" && mm.FEN != s.game.FEN() {
		log.Warn().Str("ours", s.game.FEN()).Str("theirs", mm.FEN).Msg("positions differ after relayed move")
		return fmt.Errorf("%w: positions differ", ErrOutOfSync)
	}
	return nil
}

// Tick flags a timeout once the player to move has run out of time. It
// reports whether the game ended on this call.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.game
	if !g.Timed() || g.Outcome().IsOver() {
		return false
	}
	if g.TimeLeft(g.History().LastState().SideToMove) > 0 {
		return false
	}
	g.TriggerTimeout()
	s.finish()
	return g.Outcome().IsOver()
}

// Navigate runs one of the replay operations.
func (s *Session) Navigate(op func(*game.Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op(s.game)
}

// Reset starts the game over.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit()
	s.game.Reset()
	s.started = time.Now()
	s.recorded = false
}

// Read runs fn with the game locked. fn must not keep g.
func (s *Session) Read(fn func(g *game.Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
}

// View renders the board, status and clocks.
func (s *Session) View() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render(s.game, s.opts.Flip)
}

// Analyze sends the viewed position to the engine. The game is not locked
// while the engine thinks.
func (s *Session) Analyze(ctx context.Context) (string, error) {
	if s.opts.Engine == nil {
		return "", ErrNoEngine
	}

	var (
		state board.BoardState
		fen   string
		legal []board.Move
	)
	s.Read(func(g *game.Game) {
		state, fen, legal = g.State(), g.FEN(), g.LegalMoves()
	})

	res, err := s.opts.Engine.Analyze(ctx, fen, s.opts.Depth)
	if err != nil {
		return "", err
	}
	if res.BestMove == board.NoMove {
		return "no legal move (" + res.Info.String() + ")", nil
	}
	if !lo.Contains(legal, res.BestMove) {
		return fmt.Sprintf("engine suggests %s, which is not legal here", res.BestMove), nil
	}

	next := state.Apply(res.BestMove)
	check := game.IsKingAttacked(next, next.SideToMove)
	mate := check && len(game.LegalMoves(next)) == 0
	san := res.BestMove.ToSAN(state, legal, check, mate)
	return fmt.Sprintf("best %s (%s) %s", san, res.BestMove, res.Info), nil
}

// Close records a pending hot-seat result.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit()
}

// finish notes the result once the game is over. Relayed games are recorded
// at once. Hot-seat games can still be continued from an earlier ply, so
// their result waits for Reset or Close. Callers hold the lock.
func (s *Session) finish() {
	out := s.game.Outcome()
	if s.recorded || s.pending != nil || !out.IsOver() {
		return
	}
	log.Info().Str("status", out.String()).Msg("game finished")

	res := storage.Result{
		Status:   out,
		Local:    s.opts.Local,
		Hotseat:  !s.opts.HasLocal,
		Duration: time.Since(s.started),
	}
	if res.Hotseat {
		s.pending = &res
		return
	}
	s.record(res)
}

func (s *Session) commit() {
	if s.pending == nil {
		return
	}
	res := *s.pending
	s.pending = nil
	s.record(res)
}

func (s *Session) record(res storage.Result) {
	s.recorded = true
	if s.opts.Store == nil {
		return
	}
	if err := s.opts.Store.RecordGame(res); err != nil {
		log.Error().Err(err).Msg("recording result")
	}
}
