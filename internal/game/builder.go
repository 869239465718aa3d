package game

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/timer"
)

// Builder collects the settings of a Game. It is kept by the Game so that
// Reset can start the same match over.
type Builder struct {
	clock       time.Duration
	increment   time.Duration
	now         func() time.Time
	state       board.BoardState
	hasState    bool
	halfmove    int
	fullmove    int
	replayMoves bool
	logger      *zerolog.Logger
	err         error
}

// NewBuilder returns a builder for an untimed game from the usual starting
// position.
func NewBuilder() *Builder {
	return &Builder{fullmove: 1}
}

// WithClock gives each player d on the clock. Zero means untimed.
func (b *Builder) WithClock(d time.Duration) *Builder {
	b.clock = d
	return b
}

// WithIncrement adds d to a player's clock after each of their moves.
func (b *Builder) WithIncrement(d time.Duration) *Builder {
	b.increment = d
	return b
}

// WithTimeSource replaces the wall clock used by the timer.
func (b *Builder) WithTimeSource(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithState starts the game from s instead of the usual position.
func (b *Builder) WithState(s board.BoardState) *Builder {
	b.state = s
	b.hasState = true
	b.halfmove = 0
	b.fullmove = 1
	return b
}

// WithFEN starts the game from a FEN position. Parse errors are reported
// by Build.
func (b *Builder) WithFEN(fen string) *Builder {
	s, half, full, err := board.ParseFEN(fen)
	if err != nil {
		b.err = fmt.Errorf("starting position: %w", err)
		return b
	}
	b.state = s
	b.hasState = true
	b.halfmove = half
	b.fullmove = full
	return b
}

// WithReplayMoves allows moves while the replay cursor is behind the end of
// history. Forward turns are discarded when such a move is played. Use it
// when both sides are controlled locally.
func (b *Builder) WithReplayMoves(allow bool) *Builder {
	b.replayMoves = allow
	return b
}

// WithLogger sets the logger used for game events.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = &l
	return b
}

// Build creates the Game.
func (b *Builder) Build() (*Game, error) {
	if b.err != nil {
		return nil, b.err
	}

	initial := board.NewBoardState()
	if b.hasState {
		if err := b.state.Validate(); err != nil {
			return nil, fmt.Errorf("starting position: %w", err)
		}
		initial = b.state
	}

	var opts []timer.Option
	if b.increment > 0 {
		opts = append(opts, timer.WithIncrement(b.increment))
	}
	if b.now != nil {
		opts = append(opts, timer.WithClock(b.now))
	}
	tm := timer.New(b.clock, opts...)
	tm.SetActive(initial.SideToMove)

	logger := log.Logger
	if b.logger != nil {
		logger = *b.logger
	}

	g := &Game{
		history:     NewHistory(initial, b.halfmove, b.fullmove),
		timer:       tm,
		timed:       b.clock > 0,
		replayMoves: b.replayMoves,
		builder:     *b,
		logger:      logger.With().Str("component", "game").Logger(),
	}
	g.refresh()
	g.history.setInitialStatus(g.status)
	return g, nil
}
