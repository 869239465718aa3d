package game

import (
	"github.com/hailam/chessplay/internal/board"
)

// Turn is one played ply: the state after the move, the move itself and
// what it led to. Turns are never modified once appended.
type Turn struct {
	State    board.BoardState
	Move     board.Move
	Captured bool
	Status   GameStatus
	Notation string

	// HalfmoveClock is the fifty-move counter after this ply.
	HalfmoveClock int
}

// Progress is what appending a move would do to the draw counters.
type Progress struct {
	Captured      bool
	HalfmoveClock int
	Repetitions   int
}

// History is the sequence of turns of a game together with the repetition
// multiset and fifty-move counter. The replay cursor counts the turns
// applied to reach the position being viewed (0 is the initial position)
// and moves independently of the real end of history.
type History struct {
	initial       board.BoardState
	initialStatus GameStatus
	startHalfmove int
	startFullmove int

	turns       []Turn
	repetitions map[board.BoardState]int
	halfmoves   int
	cursor      int
}

// NewHistory creates a history starting at initial. halfmove and fullmove
// seed the FEN counters (0 and 1 for a normal game).
func NewHistory(initial board.BoardState, halfmove, fullmove int) *History {
	return &History{
		initial:       initial,
		initialStatus: StatusNotStarted(),
		startHalfmove: halfmove,
		startFullmove: fullmove,
		repetitions:   map[board.BoardState]int{initial: 1},
		halfmoves:     halfmove,
	}
}

// Project computes the counters that appending next, reached by m from the
// end of history, would produce. It does not modify the history.
func (h *History) Project(next board.BoardState, m board.Move) Progress {
	prev := h.LastState()
	captured := m.IsCapture(prev)

	halfmoves := h.halfmoves + 1
	if pc, _ := prev.Get(m.From); captured || pc.Type == board.Pawn {
		halfmoves = 0
	}

	return Progress{
		Captured:      captured,
		HalfmoveClock: halfmoves,
		Repetitions:   h.repetitions[next] + 1,
	}
}

// AddInfo appends the turn reached by m and moves the cursor to the new end.
// It always appends at the real end; callers that want to play from an
// earlier ply must Truncate first.
func (h *History) AddInfo(next board.BoardState, m board.Move, notation string, status GameStatus) Turn {
	p := h.Project(next, m)

	h.halfmoves = p.HalfmoveClock
	h.repetitions[next]++

	t := Turn{
		State:         next,
		Move:          m,
		Captured:      p.Captured,
		Status:        status,
		Notation:      notation,
		HalfmoveClock: p.HalfmoveClock,
	}
	h.turns = append(h.turns, t)
	h.cursor = len(h.turns)
	return t
}

// Truncate drops every turn after the cursor and rolls the repetition
// multiset and fifty-move counter back to the cursor position.
func (h *History) Truncate() {
	for _, t := range h.turns[h.cursor:] {
		h.repetitions[t.State]--
		if h.repetitions[t.State] <= 0 {
			delete(h.repetitions, t.State)
		}
	}
	h.turns = h.turns[:h.cursor]
	h.halfmoves = h.halfmoveAt(h.cursor)
}

// Back moves the cursor one ply toward the start.
func (h *History) Back() bool {
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Forward moves the cursor one ply toward the end.
func (h *History) Forward() bool {
	if h.cursor >= len(h.turns) {
		return false
	}
	h.cursor++
	return true
}

// ToStart moves the cursor to the initial position.
func (h *History) ToStart() {
	h.cursor = 0
}

// Resume moves the cursor to the real end of history.
func (h *History) Resume() {
	h.cursor = len(h.turns)
}

// Cursor returns the number of plies played to reach the viewed position.
func (h *History) Cursor() int {
	return h.cursor
}

// Len returns the number of turns played.
func (h *History) Len() int {
	return len(h.turns)
}

// AtEnd returns true if the cursor is at the real end of history.
func (h *History) AtEnd() bool {
	return h.cursor == len(h.turns)
}

// Initial returns the state before the first move.
func (h *History) Initial() board.BoardState {
	return h.initial
}

// CurrentState returns the state at the cursor.
func (h *History) CurrentState() board.BoardState {
	return h.stateAt(h.cursor)
}

// LastState returns the state at the real end of history.
func (h *History) LastState() board.BoardState {
	return h.stateAt(len(h.turns))
}

// CurrentTurn returns the turn that produced the viewed position.
func (h *History) CurrentTurn() (Turn, bool) {
	if h.cursor == 0 {
		return Turn{}, false
	}
	return h.turns[h.cursor-1], true
}

// CurrentStatus returns the status recorded for the viewed position.
func (h *History) CurrentStatus() GameStatus {
	if t, ok := h.CurrentTurn(); ok {
		return t.Status
	}
	return h.initialStatus
}

// Turns returns a copy of every played turn.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Repetitions returns how many times s has been reached in this game.
func (h *History) Repetitions(s board.BoardState) int {
	return h.repetitions[s]
}

// HalfmoveClock returns the fifty-move counter at the real end of history.
func (h *History) HalfmoveClock() int {
	return h.halfmoves
}

// FEN returns the FEN string of the position at the cursor.
func (h *History) FEN() string {
	return h.CurrentState().FEN(h.halfmoveAt(h.cursor), h.fullmoveAt(h.cursor))
}

// FirstMover returns the color that made (or will make) the first move.
func (h *History) FirstMover() board.Color {
	return h.initial.SideToMove
}

// StartFullmove returns the full-move number of the initial position.
func (h *History) StartFullmove() int {
	return h.startFullmove
}

func (h *History) setInitialStatus(s GameStatus) {
	h.initialStatus = s
}

func (h *History) stateAt(ply int) board.BoardState {
	if ply == 0 {
		return h.initial
	}
	return h.turns[ply-1].State
}

func (h *History) halfmoveAt(ply int) int {
	if ply == 0 {
		return h.startHalfmove
	}
	return h.turns[ply-1].HalfmoveClock
}

// fullmoveAt numbers moves from the initial full-move number, which is
// ply/2 + 1 for a game starting from the usual position.
func (h *History) fullmoveAt(ply int) int {
	offset := 0
	if h.initial.SideToMove == board.Black {
		offset = 1
	}
	return h.startFullmove + (ply+offset)/2
}
