package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
)

// Preferences stores user settings. They seed the configuration and can be
// overridden by flags.
type Preferences struct {
	PlayerName    string        `json:"player_name"`
	Clock         time.Duration `json:"clock"`
	Increment     time.Duration `json:"increment"`
	EngineCommand string        `json:"engine_command"`
	EngineDepth   int           `json:"engine_depth"`
	RelayURL      string        `json:"relay_url"`
	FlipBoard     bool          `json:"flip_board"`
	LastPlayed    time.Time     `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		PlayerName:  "Player",
		EngineDepth: 12,
	}
}

// Stats stores results of finished games. Games themselves are not kept.
type Stats struct {
	GamesPlayed      int            `json:"games_played"`
	Wins             int            `json:"wins"`
	Losses           int            `json:"losses"`
	Draws            int            `json:"draws"`
	Timeouts         int            `json:"timeouts"`
	WinsByColor      map[string]int `json:"wins_by_color"`
	DrawsByKind      map[string]int `json:"draws_by_kind"`
	TotalPlayTime    time.Duration  `json:"total_play_time"`
	LongestWinStreak int            `json:"longest_win_streak"`
	CurrentStreak    int            `json:"current_streak"`
}

// NewStats returns empty statistics
func NewStats() *Stats {
	return &Stats{
		WinsByColor: make(map[string]int),
		DrawsByKind: make(map[string]int),
	}
}

// Result is a finished game as seen from this terminal.
type Result struct {
	Status game.GameStatus
	// Local is the color played here. Ignored when Hotseat is set.
	Local board.Color
	// Hotseat means both colors were played at this terminal, so the game
	// counts for neither wins nor losses.
	Hotseat  bool
	Duration time.Duration
}

// ErrGameNotOver is returned when recording a game that has not ended.
var ErrGameNotOver = errors.New("game is not over")

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir, or in the platform data directory when
// dir is empty.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = GetDatabaseDir(); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	log.Debug().Str("dir", opts.Dir).Bool("in-memory", opts.InMemory).Msg("storage opened")
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	return prefs, s.get(keyPreferences, prefs)
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *Stats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*Stats, error) {
	stats := NewStats()
	return stats, s.get(keyStats, stats)
}

// RecordGame adds a finished game to the statistics.
func (s *Storage) RecordGame(result Result) error {
	if !result.Status.IsOver() {
		return fmt.Errorf("storage: %w: %s", ErrGameNotOver, result.Status)
	}

	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.record(result)
	return s.SaveStats(stats)
}

func (st *Stats) record(result Result) {
	st.GamesPlayed++
	st.TotalPlayTime += result.Duration

	status := result.Status
	if status.Kind == game.Timeout {
		st.Timeouts++
	}

	if status.IsDraw() {
		st.Draws++
		st.DrawsByKind[status.Draw.String()]++
		st.CurrentStreak = 0
		return
	}

	winner, _ := status.Winner()
	st.WinsByColor[winner.String()]++
	if result.Hotseat {
		return
	}

	if winner == result.Local {
		st.Wins++
		st.CurrentStreak++
		if st.CurrentStreak > st.LongestWinStreak {
			st.LongestWinStreak = st.CurrentStreak
		}
	} else {
		st.Losses++
		st.CurrentStreak = 0
	}
}

// WinRate returns the win rate as a percentage (0-100)
func (st *Stats) WinRate() float64 {
	if st.GamesPlayed == 0 {
		return 0
	}
	return float64(st.Wins) / float64(st.GamesPlayed) * 100
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get leaves v untouched if key is missing.
func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}
