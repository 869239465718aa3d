// chessplay-analyze asks a UCI engine for the best move of one position and
// prints it in both notations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chessplay/internal/analysis"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/game"
)

func main() {
	cfg := config.New()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Debug() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if cfg.EngineCommand() == "" {
		log.Fatal().Msg("no engine, set --engine-command or CHESSPLAY_ENGINE_COMMAND")
	}

	fen := cfg.FEN()
	if fen == "" {
		fen = board.StartFEN
	}
	g, err := game.NewBuilder().WithFEN(fen).WithLogger(log.Logger).Build()
	if err != nil {
		log.Fatal().Err(err).Msg("bad position")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := analysis.Start(ctx, cfg.EngineCommand())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start engine")
	}
	defer eng.Close()

	start := time.Now()
	res, err := eng.Analyze(ctx, fen, cfg.EngineDepth())
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return
	}
	log.Debug().Dur("took", time.Since(start)).Uint64("nodes", res.Info.Nodes).Msg("analysis done")

	if res.BestMove == board.NoMove {
		fmt.Printf("no legal move: %s\n", g.Status())
		return
	}

	state, legal := g.State(), g.LegalMoves()
	if !lo.Contains(legal, res.BestMove) {
		log.Error().Stringer("move", res.BestMove).Msg("engine returned an illegal move")
		return
	}
	next := state.Apply(res.BestMove)
	check := game.IsKingAttacked(next, next.SideToMove)
	mate := check && len(game.LegalMoves(next)) == 0
	fmt.Printf("%s %s %s\n", res.BestMove.ToSAN(state, legal, check, mate), res.BestMove, res.Info)
}
