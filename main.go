// chessplay is a terminal chess board. Two players share the keyboard, or
// each plays on their own terminal with moves relayed over NATS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessplay/internal/analysis"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/relay"
	"github.com/hailam/chessplay/internal/shell"
	"github.com/hailam/chessplay/internal/storage"
)

func main() {
	cfg := config.New()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.Debug())

	store, err := openStorage(cfg.DataDir())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	prefs, err := store.LoadPreferences()
	if err != nil {
		log.Warn().Err(err).Msg("could not load preferences, using defaults")
		prefs = storage.DefaultPreferences()
	}
	applyPreferences(cfg, prefs)

	if first, err := store.IsFirstLaunch(); err == nil && first {
		fmt.Println(shell.Greeting)
		if err := store.MarkFirstLaunchComplete(); err != nil {
			log.Warn().Err(err).Msg("could not mark first launch")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, store, prefs); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("chessplay failed")
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func openStorage(dataDir string) (*storage.Storage, error) {
	if dataDir == "" {
		return storage.Open("")
	}
	dir, err := storage.DatabaseDirIn(dataDir)
	if err != nil {
		return nil, err
	}
	return storage.Open(dir)
}

// applyPreferences makes the saved preferences the defaults, so flags,
// environment and the config file still override them.
func applyPreferences(cfg *config.Config, prefs *storage.Preferences) {
	if prefs.Clock > 0 {
		cfg.SetDefault(config.KeyClock, prefs.Clock)
	}
	if prefs.Increment > 0 {
		cfg.SetDefault(config.KeyIncrement, prefs.Increment)
	}
	if prefs.EngineCommand != "" {
		cfg.SetDefault(config.KeyEngineCommand, prefs.EngineCommand)
	}
	if prefs.EngineDepth > 0 {
		cfg.SetDefault(config.KeyEngineDepth, prefs.EngineDepth)
	}
	if prefs.RelayURL != "" {
		cfg.SetDefault(config.KeyNatsURL, prefs.RelayURL)
	}
}

func run(ctx context.Context, cfg *config.Config, store *storage.Storage, prefs *storage.Preferences) error {
	b := game.NewBuilder().
		WithClock(cfg.Clock()).
		WithIncrement(cfg.Increment()).
		WithLogger(log.Logger)
	if fen := cfg.FEN(); fen != "" {
		b = b.WithFEN(fen)
	}

	local, hasLocal, err := cfg.PlayerColor()
	if err != nil {
		return err
	}

	opts := shell.Options{
		Builder:  b,
		Local:    local,
		HasLocal: hasLocal,
		Flip:     prefs.FlipBoard,
		Depth:    cfg.EngineDepth(),
		Store:    store,
	}

	if cmd := cfg.EngineCommand(); cmd != "" {
		eng, err := analysis.Start(ctx, cmd)
		if err != nil {
			log.Warn().Err(err).Msg("analysis engine unavailable")
		} else {
			defer eng.Close()
			opts.Engine = eng
		}
	}

	var src shell.MoveSource
	if url := cfg.NatsURL(); url != "" {
		gameID := cfg.GameID()
		if gameID == "" {
			gameID = relay.NewGameID()
			if !hasLocal {
				opts.Local, opts.HasLocal = board.White, true
			}
		} else if !hasLocal {
			opts.Local, opts.HasLocal = board.Black, true
		}
		opts.Flip = opts.Local == board.Black

		r, err := relay.Connect(ctx, url, gameID)
		if err != nil {
			return err
		}
		defer r.Close()
		log.Info().Str("game-id", gameID).Str("color", opts.Local.String()).
			Msg("relaying moves, share the game id with your opponent")
		opts.Relay = r
		src = r
	}

	session, err := shell.NewSession(opts)
	if err != nil {
		return err
	}

	prefs.LastPlayed = time.Now()
	if err := store.SavePreferences(prefs); err != nil {
		log.Warn().Err(err).Msg("could not save preferences")
	}

	defer session.Close()

	return shell.NewController(session, os.Stdout).Run(ctx, src)
}
