// Package relay forwards moves between two chessplay terminals over NATS.
// Each side runs its own Game; only moves and the resulting FEN cross the
// wire.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessplay/internal/board"
)

const subjectPrefix = "chessplay.games."

var ErrBadMessage = errors.New("relay: bad message")

// MoveMessage is one relayed move. FEN is the position after the move and
// lets the receiver notice when the two games have diverged.
type MoveMessage struct {
	GameID string `json:"game_id"`
	Sender string `json:"sender"`
	Ply    int    `json:"ply"`
	From   string `json:"from"`
	To     string `json:"to"`
	FEN    string `json:"fen"`
}

// Move decodes the coordinates.
func (m MoveMessage) Move() (board.Move, error) {
	from, err := board.ParsePosition(m.From)
	if err != nil {
		return board.NoMove, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	to, err := board.ParsePosition(m.To)
	if err != nil {
		return board.NoMove, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return board.NewMove(from, to), nil
}

// NewGameID returns a fresh game id.
func NewGameID() string {
	return uuid.NewString()
}

// Subject returns the NATS subject moves of gameID are published on.
func Subject(gameID string) string {
	return subjectPrefix + gameID + ".moves"
}

// Relay is a connection to one relayed game.
type Relay struct {
	nc     *nats.Conn
	gameID string
	sender string
	logger zerolog.Logger
}

// Option configures Connect.
type Option func(*options)

type options struct {
	attempts uint
	delay    time.Duration
	logger   zerolog.Logger
}

// WithAttempts sets how many times connecting is tried.
func WithAttempts(n uint) Option {
	return func(o *options) { o.attempts = n }
}

// WithRetryDelay sets the initial delay between connection attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Connect dials the NATS server at url, retrying with backoff.
func Connect(ctx context.Context, url, gameID string, opts ...Option) (*Relay, error) {
	o := options{attempts: 5, delay: 250 * time.Millisecond, logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Relay{
		gameID: gameID,
		sender: uuid.NewString(),
	}
	r.logger = o.logger.With().Str("component", "relay").Str("game", gameID).Logger()

	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(url, nats.Name("chessplay"), nats.Timeout(2*time.Second))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(o.attempts),
		retry.Delay(o.delay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			r.logger.Warn().Err(err).Uint("n", n).Msg("nats-connect-failed-retrying")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("relay: connecting to %s: %w", url, err)
	}

	r.nc = nc
	r.logger.Info().Str("url", nc.ConnectedUrl()).Msg("relay connected")
	return r, nil
}

// GameID returns the relayed game id.
func (r *Relay) GameID() string {
	return r.gameID
}

// Publish sends the move played at ply (1 for the first move of the game).
func (r *Relay) Publish(ply int, m board.Move, fen string) error {
	data, err := r.encode(ply, m, fen)
	if err != nil {
		return err
	}
	if err := r.nc.Publish(Subject(r.gameID), data); err != nil {
		return fmt.Errorf("relay: publish: %w", err)
	}
	r.logger.Debug().Int("ply", ply).Str("move", m.String()).Msg("move published")
	return nil
}

// Run delivers the opponent's moves to handle until ctx ends. Own moves
// and undecodable messages are dropped.
func (r *Relay) Run(ctx context.Context, handle func(MoveMessage)) error {
	sub, err := r.nc.Subscribe(Subject(r.gameID), func(msg *nats.Msg) {
		r.dispatch(msg, handle)
	})
	if err != nil {
		return fmt.Errorf("relay: subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if err := r.nc.Flush(); err != nil {
		return fmt.Errorf("relay: flush: %w", err)
	}
	<-ctx.Done()
	return nil
}

// Close drains and closes the connection.
func (r *Relay) Close() error {
	if r.nc == nil {
		return nil
	}
	return r.nc.Drain()
}

func (r *Relay) encode(ply int, m board.Move, fen string) ([]byte, error) {
	return json.Marshal(MoveMessage{
		GameID: r.gameID,
		Sender: r.sender,
		Ply:    ply,
		From:   m.From.String(),
		To:     m.To.String(),
		FEN:    fen,
	})
}

func (r *Relay) dispatch(msg *nats.Msg, handle func(MoveMessage)) {
	var mm MoveMessage
	if err := json.Unmarshal(msg.Data, &mm); err != nil {
		r.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping undecodable message")
		return
	}
	if mm.Sender == r.sender {
		return
	}
	if mm.GameID != r.gameID {
		r.logger.Warn().Str("other", mm.GameID).Msg("dropping message for another game")
		return
	}
	r.logger.Debug().Int("ply", mm.Ply).Str("from", mm.From).Str("to", mm.To).Msg("move received")
	handle(mm)
}
