package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if prefs.PlayerName != "Player" {
		t.Errorf("Expected player name 'Player', got '%s'", prefs.PlayerName)
	}
	if prefs.EngineDepth != 12 {
		t.Errorf("Expected default depth 12, got %d", prefs.EngineDepth)
	}

	prefs.Clock = 5 * time.Minute
	prefs.RelayURL = "nats://localhost:4222"
	prefs.FlipBoard = true
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}

	loaded, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if loaded.Clock != 5*time.Minute || loaded.RelayURL != "nats://localhost:4222" || !loaded.FlipBoard {
		t.Errorf("Preferences not restored: %+v", loaded)
	}
	if loaded.LastPlayed.IsZero() {
		t.Error("Expected LastPlayed to be set on save")
	}
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("Expected first launch, got %v (%v)", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	first, err = s.IsFirstLaunch()
	if err != nil || first {
		t.Fatalf("Expected first launch to be over, got %v (%v)", first, err)
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	results := []Result{
		{Status: game.StatusCheckmate(board.Black), Local: board.White, Duration: time.Minute},
		{Status: game.StatusTimeout(board.Black), Local: board.White, Duration: time.Minute},
		{Status: game.StatusCheckmate(board.White), Local: board.White, Duration: time.Minute},
		{Status: game.StatusDraw(game.Repetition), Local: board.White},
		{Status: game.StatusCheckmate(board.White), Hotseat: true},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame(%s) failed: %v", r.Status, err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 5 {
		t.Errorf("Expected 5 games, got %d", stats.GamesPlayed)
	}
	if stats.Wins != 2 || stats.Losses != 1 || stats.Draws != 1 {
		t.Errorf("Expected 2/1/1, got %d/%d/%d", stats.Wins, stats.Losses, stats.Draws)
	}
	if stats.Timeouts != 1 {
		t.Errorf("Expected 1 timeout, got %d", stats.Timeouts)
	}
	if stats.WinsByColor["White"] != 2 || stats.WinsByColor["Black"] != 2 {
		t.Errorf("Unexpected wins by color: %v", stats.WinsByColor)
	}
	if stats.DrawsByKind["threefold repetition"] != 1 {
		t.Errorf("Unexpected draws by kind: %v", stats.DrawsByKind)
	}
	if stats.LongestWinStreak != 2 || stats.CurrentStreak != 0 {
		t.Errorf("Unexpected streaks: longest %d current %d", stats.LongestWinStreak, stats.CurrentStreak)
	}
	if stats.TotalPlayTime != 3*time.Minute {
		t.Errorf("Expected 3m play time, got %v", stats.TotalPlayTime)
	}
}

func TestRecordUnfinishedGame(t *testing.T) {
	s := openTest(t)

	err := s.RecordGame(Result{Status: game.StatusOngoing()})
	if !errors.Is(err, ErrGameNotOver) {
		t.Errorf("Expected ErrGameNotOver, got %v", err)
	}
}

func TestWinRate(t *testing.T) {
	stats := &Stats{GamesPlayed: 10, Wins: 5, Losses: 3, Draws: 2}
	if rate := stats.WinRate(); rate != 50 {
		t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
	}
	if NewStats().WinRate() != 0 {
		t.Error("Expected 0 win rate")
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir, err := DatabaseDirIn(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SaveStats(NewStats()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "MANIFEST")); err != nil {
		t.Errorf("Expected badger files in %s: %v", dir, err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}
