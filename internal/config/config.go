// Package config loads chessplay settings from defaults, an optional
// chessplay.yaml, CHESSPLAY_* environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hailam/chessplay/internal/board"
)

// Setting keys.
const (
	KeyConfig        = "config"
	KeyClock         = "clock"
	KeyIncrement     = "increment"
	KeyDebug         = "debug"
	KeyDataDir       = "data-dir"
	KeyEngineCommand = "engine-command"
	KeyEngineDepth   = "engine-depth"
	KeyNatsURL       = "nats-url"
	KeyGameID        = "game-id"
	KeyColor         = "color"
	KeyFEN           = "fen"
)

const envPrefix = "CHESSPLAY"

// Config is a viper instance with typed getters for the keys above.
type Config struct {
	*viper.Viper
}

// New returns a Config holding only the defaults.
func New() *Config {
	v := viper.New()
	v.SetDefault(KeyClock, time.Duration(0))
	v.SetDefault(KeyIncrement, time.Duration(0))
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyEngineCommand, "")
	v.SetDefault(KeyEngineDepth, 12)
	v.SetDefault(KeyNatsURL, "")
	v.SetDefault(KeyGameID, "")
	v.SetDefault(KeyColor, "")
	v.SetDefault(KeyFEN, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &Config{Viper: v}
}

// Load parses args and reads the config file. A missing chessplay.yaml in
// the working directory is not an error; a missing file named with --config
// is.
func (c *Config) Load(args []string) error {
	fs := pflag.NewFlagSet("chessplay", pflag.ContinueOnError)
	fs.String(KeyConfig, "", "path to a YAML config file")
	fs.Duration(KeyClock, 0, "time per player, e.g. 5m (0 plays without a clock)")
	fs.Duration(KeyIncrement, 0, "time added after each move")
	fs.Bool(KeyDebug, false, "debug logging")
	fs.String(KeyDataDir, "", "directory for the settings database")
	fs.String(KeyEngineCommand, "", "UCI engine command line used by analyze")
	fs.Int(KeyEngineDepth, 12, "analysis depth in plies")
	fs.String(KeyNatsURL, "", "NATS server used to relay moves to a remote opponent")
	fs.String(KeyGameID, "", "relay game id (empty creates a new one)")
	fs.String(KeyColor, "", "color played locally when relaying: white or black")
	fs.String(KeyFEN, "", "starting position")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	explicit := c.GetString(KeyConfig)
	if explicit != "" {
		c.SetConfigFile(explicit)
	} else {
		c.SetConfigName("chessplay")
		c.SetConfigType("yaml")
		c.AddConfigPath(".")
	}

	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func (c *Config) Clock() time.Duration     { return c.GetDuration(KeyClock) }
func (c *Config) Increment() time.Duration { return c.GetDuration(KeyIncrement) }
func (c *Config) Debug() bool              { return c.GetBool(KeyDebug) }
func (c *Config) DataDir() string          { return c.GetString(KeyDataDir) }
func (c *Config) EngineCommand() string    { return c.GetString(KeyEngineCommand) }
func (c *Config) EngineDepth() int         { return c.GetInt(KeyEngineDepth) }
func (c *Config) NatsURL() string          { return c.GetString(KeyNatsURL) }
func (c *Config) GameID() string           { return c.GetString(KeyGameID) }
func (c *Config) FEN() string              { return c.GetString(KeyFEN) }

// PlayerColor returns the color played locally. ok is false when both
// colors are played at this terminal.
func (c *Config) PlayerColor() (color board.Color, ok bool, err error) {
	switch strings.ToLower(c.GetString(KeyColor)) {
	case "":
		return board.White, false, nil
	case "w", "white":
		return board.White, true, nil
	case "b", "black":
		return board.Black, true, nil
	default:
		return board.White, false, fmt.Errorf("config: unknown color %q", c.GetString(KeyColor))
	}
}
