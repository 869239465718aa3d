package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hailam/chessplay/internal/analysis"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/relay"
	"github.com/hailam/chessplay/internal/storage"
)

type published struct {
	ply int
	m   board.Move
	fen string
}

type fakeRelay struct{ sent []published }

func (f *fakeRelay) Publish(ply int, m board.Move, fen string) error {
	f.sent = append(f.sent, published{ply, m, fen})
	return nil
}

type fakeEngine struct {
	res analysis.Result
	fen string
}

func (f *fakeEngine) Analyze(_ context.Context, fen string, _ int) (analysis.Result, error) {
	f.fen = fen
	return f.res, nil
}

type fakeStore struct{ results []storage.Result }

func (f *fakeStore) RecordGame(r storage.Result) error {
	f.results = append(f.results, r)
	return nil
}

func mustMove(t *testing.T, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := NewSession(opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExecuteCommands(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	c := NewController(newSession(t, Options{}), &out)
	ctx := context.Background()

	for _, line := range []string{"e2e4", "move e7e5", "G1F3"} {
		_, err := c.Execute(ctx, line)
		is.NoErr(err)
	}

	out.Reset()
	_, err := c.Execute(ctx, "rounds")
	is.NoErr(err)
	is.Equal(out.String(), "1. e4 e5\n2. Nf3\n")

	out.Reset()
	_, err = c.Execute(ctx, "fen")
	is.NoErr(err)
	is.Equal(out.String(), "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2\n")

	out.Reset()
	_, err = c.Execute(ctx, "moves b8")
	is.NoErr(err)
	is.Equal(out.String(), "c6 a6\n")

	_, err = c.Execute(ctx, "e2e4")
	is.True(errors.Is(err, game.ErrNoPieceAtPosition))

	_, err = c.Execute(ctx, "dance")
	is.True(errors.Is(err, errUnknownCommand))

	quit, err := c.Execute(ctx, "exit")
	is.NoErr(err)
	is.True(quit)
}

func TestNavigationCommands(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	s := newSession(t, Options{})
	c := NewController(s, &out)
	ctx := context.Background()

	for _, line := range []string{"e2e4", "e7e5", "b", "b"} {
		_, err := c.Execute(ctx, line)
		is.NoErr(err)
	}
	s.Read(func(g *game.Game) { is.Equal(g.History().Cursor(), 0) })

	_, err := c.Execute(ctx, "n")
	is.NoErr(err)
	_, err = c.Execute(ctx, "resume")
	is.NoErr(err)
	s.Read(func(g *game.Game) { is.True(g.History().AtEnd()) })

	_, err = c.Execute(ctx, "start")
	is.NoErr(err)
	// Hot-seat games continue from an earlier ply.
	_, err = c.Execute(ctx, "d2d4")
	is.NoErr(err)
	s.Read(func(g *game.Game) { is.Equal(g.History().Len(), 1) })

	_, err = c.Execute(ctx, "reset")
	is.NoErr(err)
	s.Read(func(g *game.Game) { is.Equal(g.History().Len(), 0) })
}

func TestRelayedSession(t *testing.T) {
	is := is.New(t)
	pub := &fakeRelay{}
	s := newSession(t, Options{Local: board.White, HasLocal: true, Relay: pub})

	is.NoErr(s.Move(mustMove(t, "e2e4")))
	is.Equal(len(pub.sent), 1)
	is.Equal(pub.sent[0].ply, 1)
	is.Equal(pub.sent[0].fen, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")

	// Black is played on the other terminal.
	err := s.Move(mustMove(t, "e7e5"))
	is.True(errors.Is(err, ErrNotYourTurn))

	err = s.ApplyRemote(relay.MoveMessage{Ply: 3, From: "e7", To: "e5"})
	is.True(errors.Is(err, ErrOutOfSync))

	is.NoErr(s.ApplyRemote(relay.MoveMessage{
		Ply: 2, From: "e7", To: "e5",
		FEN: "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
	}))

	err = s.ApplyRemote(relay.MoveMessage{Ply: 3, From: "g8", To: "f6"})
	is.True(errors.Is(err, ErrOutOfSync)) // our turn
}

func TestRemoteMoveFollowsEnd(t *testing.T) {
	is := is.New(t)
	s := newSession(t, Options{Local: board.White, HasLocal: true})

	is.NoErr(s.Move(mustMove(t, "e2e4")))
	s.Navigate((*game.Game).ToStart)

	is.NoErr(s.ApplyRemote(relay.MoveMessage{Ply: 2, From: "e7", To: "e5"}))
	s.Read(func(g *game.Game) {
		is.True(g.History().AtEnd())
		is.Equal(g.History().Len(), 2)
	})

	// Relayed games cannot branch from an earlier ply.
	s.Navigate(func(g *game.Game) { g.Back() })
	err := s.Move(mustMove(t, "g1f3"))
	is.True(errors.Is(err, game.ErrInvalidMove))
}

func TestResultIsRecordedOnce(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{}
	s := newSession(t, Options{Store: store})

	for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		is.NoErr(s.Move(mustMove(t, m)))
	}
	// Hot-seat endings are kept until the game is left.
	is.Equal(len(store.results), 0)
	is.True(!s.Tick())

	s.Reset()
	is.Equal(len(store.results), 1)
	is.Equal(store.results[0].Status, game.StatusCheckmate(board.White))
	is.True(store.results[0].Hotseat)

	is.NoErr(s.Move(mustMove(t, "e2e4")))
	s.Close()
	is.Equal(len(store.results), 1)
}

func TestTakenBackEndingIsNotRecorded(t *testing.T) {
	is := is.New(t)
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	store := &fakeStore{}
	b := game.NewBuilder().WithClock(time.Minute).WithTimeSource(clock)
	s := newSession(t, Options{Builder: b, Store: store})

	for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		is.NoErr(s.Move(mustMove(t, m)))
	}
	s.Navigate(func(g *game.Game) { g.Back() })
	is.NoErr(s.Move(mustMove(t, "d8g5")))

	now = now.Add(2 * time.Minute)
	is.True(s.Tick())
	s.Close()

	is.Equal(len(store.results), 1)
	is.Equal(store.results[0].Status, game.StatusTimeout(board.White))
}

func TestRelayedResultIsRecordedAtOnce(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{}
	s := newSession(t, Options{Store: store, Local: board.Black, HasLocal: true})

	for i, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		mm := relay.MoveMessage{Ply: i + 1, From: m[:2], To: m[2:]}
		if i%2 == 0 {
			is.NoErr(s.ApplyRemote(mm))
			continue
		}
		is.NoErr(s.Move(mustMove(t, m)))
	}
	is.Equal(len(store.results), 1)
	is.Equal(store.results[0].Local, board.Black)
	is.True(!store.results[0].Hotseat)
}

func TestTickTimeout(t *testing.T) {
	is := is.New(t)
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	store := &fakeStore{}
	b := game.NewBuilder().WithClock(time.Minute).WithTimeSource(clock)
	s := newSession(t, Options{Builder: b, Store: store, Local: board.White, HasLocal: true})

	is.True(!s.Tick())
	is.NoErr(s.Move(mustMove(t, "e2e4")))
	now = now.Add(59 * time.Second)
	is.True(!s.Tick())

	now = now.Add(2 * time.Second)
	is.True(s.Tick())
	s.Read(func(g *game.Game) { is.Equal(g.Outcome(), game.StatusTimeout(board.Black)) })
	is.Equal(len(store.results), 1)
	is.Equal(store.results[0].Local, board.White)
	is.True(!store.results[0].Hotseat)

	is.True(!s.Tick())
	view := s.View()
	is.True(strings.Contains(view, "Black ran out of time"))
	is.True(strings.Contains(view, "White 1:00  Black 0:00"))
}

func TestAnalyze(t *testing.T) {
	is := is.New(t)
	eng := &fakeEngine{res: analysis.Result{
		BestMove: mustMove(t, "g1f3"),
		Info:     analysis.Info{Depth: 10, Score: 25, PV: []string{"g1f3"}},
	}}
	s := newSession(t, Options{Engine: eng})

	msg, err := s.Analyze(context.Background())
	is.NoErr(err)
	is.Equal(eng.fen, board.StartFEN)
	is.Equal(msg, "best Nf3 (g1f3) +0.25 depth 10 pv g1f3")

	eng.res.BestMove = mustMove(t, "e2e5")
	msg, err = s.Analyze(context.Background())
	is.NoErr(err)
	is.True(strings.Contains(msg, "not legal"))

	_, err = newSession(t, Options{}).Analyze(context.Background())
	is.True(errors.Is(err, ErrNoEngine))
}

func TestRender(t *testing.T) {
	is := is.New(t)
	s := newSession(t, Options{})
	is.NoErr(s.Move(mustMove(t, "e2e4")))

	view := s.View()
	lines := strings.Split(view, "\n")
	is.Equal(lines[0], "8  r  n  b  q  k  b  n  r ")
	is.Equal(lines[3], "5  .  .  .  .  .  .  .  . ")
	is.Equal(lines[4], "4  .  .  .  . [P] .  .  . ")
	is.Equal(lines[6], "2  P  P  P  P [.] P  P  P ")
	is.Equal(lines[8], "   a  b  c  d  e  f  g  h ")
	is.True(strings.Contains(view, "ply 1/1, Black to move: ongoing"))

	flipped := newSession(t, Options{Flip: true}).View()
	is.Equal(strings.Split(flipped, "\n")[0], "1  R  N  B  K  Q  B  N  R ")
}
