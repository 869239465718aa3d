package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPos(t *testing.T, s string) Position {
	t.Helper()
	p, err := ParsePosition(s)
	require.NoError(t, err)
	return p
}

func mustState(t *testing.T, fen string) BoardState {
	t.Helper()
	s, _, _, err := ParseFEN(fen)
	require.NoError(t, err)
	return s
}

func TestStartingPosition(t *testing.T) {
	s := NewBoardState()

	assert.Len(t, s.Pieces(), 32)
	assert.Equal(t, White, s.SideToMove)
	assert.Equal(t, AllCastling, s.CastlingRights)
	assert.False(t, s.HasEnPassant())
	assert.Equal(t, mustPos(t, "e1"), s.King(White))
	assert.Equal(t, mustPos(t, "e8"), s.King(Black))

	pc, ok := s.Get(mustPos(t, "d8"))
	require.True(t, ok)
	assert.Equal(t, NewPiece(Queen, Black), pc)
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
	}
	for _, fen := range fens {
		s, half, full, err := ParseFEN(fen)
		require.NoError(t, err, fen)
		assert.Equal(t, fen, s.FEN(half, full))
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkz -",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNp w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPP\u0150/RNBQKBNR w KQkq -",
	}
	for _, fen := range bad {
		_, _, _, err := ParseFEN(fen)
		assert.Error(t, err, fen)
	}
}

func TestFENRevokesRightsWithoutRooks(t *testing.T) {
	s := mustState(t, "4k3/8/8/8/8/8/8/4K2R w KQkq - 0 1")
	assert.Equal(t, WhiteKingSideCastle, s.CastlingRights)
}

func TestApplyDoubleAdvanceSetsEnPassant(t *testing.T) {
	s := NewBoardState()
	next := s.Apply(NewMove(mustPos(t, "e2"), mustPos(t, "e4")))

	assert.Equal(t, mustPos(t, "e3"), next.EnPassant)
	assert.Equal(t, Black, next.SideToMove)

	after := next.Apply(NewMove(mustPos(t, "g8"), mustPos(t, "f6")))
	assert.False(t, after.HasEnPassant())

	// The receiver is untouched.
	assert.Equal(t, NewBoardState(), s)
}

func TestApplyEnPassantCapture(t *testing.T) {
	s := mustState(t, "4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 1")
	next := s.Apply(NewMove(mustPos(t, "d5"), mustPos(t, "e6")))

	_, ok := next.Get(mustPos(t, "e5"))
	assert.False(t, ok, "captured pawn must be removed")
	pc, _ := next.Get(mustPos(t, "e6"))
	assert.Equal(t, NewPiece(Pawn, White), pc)
}

func TestApplyCastling(t *testing.T) {
	s := mustState(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	next := s.Apply(NewMove(mustPos(t, "e1"), mustPos(t, "g1")))
	rook, _ := next.Get(mustPos(t, "f1"))
	assert.Equal(t, NewPiece(Rook, White), rook)
	_, ok := next.Get(mustPos(t, "h1"))
	assert.False(t, ok)
	assert.Equal(t, mustPos(t, "g1"), next.King(White))
	assert.Equal(t, BlackKingSideCastle|BlackQueenSideCastle, next.CastlingRights)

	next = next.Apply(NewMove(mustPos(t, "e8"), mustPos(t, "c8")))
	rook, _ = next.Get(mustPos(t, "d8"))
	assert.Equal(t, NewPiece(Rook, Black), rook)
	assert.Equal(t, NoCastling, next.CastlingRights)
}

func TestApplyRookMoveRevokesOneSide(t *testing.T) {
	s := mustState(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	next := s.Apply(NewMove(mustPos(t, "a1"), mustPos(t, "a8")))

	assert.Equal(t, WhiteKingSideCastle|BlackKingSideCastle, next.CastlingRights)
}

func TestApplyPromotesToQueen(t *testing.T) {
	s := mustState(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	next := s.Apply(NewMove(mustPos(t, "a7"), mustPos(t, "a8")))

	pc, _ := next.Get(mustPos(t, "a8"))
	assert.Equal(t, NewPiece(Queen, White), pc)
}

func TestApplyEmptyOriginPanics(t *testing.T) {
	s := NewBoardState()
	assert.Panics(t, func() {
		s.Apply(NewMove(mustPos(t, "e4"), mustPos(t, "e5")))
	})
}

func TestPreconditionChecks(t *testing.T) {
	s := NewBoardState()

	assert.NoError(t, s.CheckInBounds(Pos(7, 7)))
	assert.True(t, errors.Is(s.CheckInBounds(Pos(8, 0)), ErrOutOfBounds))
	assert.True(t, errors.Is(s.CheckInBounds(Pos(0, -1)), ErrOutOfBounds))

	assert.NoError(t, s.CheckPieceAt(mustPos(t, "a1")))
	assert.True(t, errors.Is(s.CheckPieceAt(mustPos(t, "e4")), ErrNoPieceAtPosition))
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want bool
	}{
		{"bare kings", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},
		{"two knights", "4k3/8/8/8/8/8/8/1N2K1N1 w - - 0 1", true},
		{"knight each", "1n2k3/8/8/8/8/8/8/4K1N1 w - - 0 1", true},
		{"three knights", "1n2k3/8/8/8/8/8/8/1N2K1N1 w - - 0 1", false},
		{"same colored bishops", "2b1k3/8/8/8/8/8/8/4KB2 w - - 0 1", true},
		{"opposite colored bishops", "3bk3/8/8/8/8/8/8/4KB2 w - - 0 1", false},
		{"lone bishop", "4k3/8/8/8/8/8/8/4KB2 w - - 0 1", false},
		{"bishop and knight", "4k3/8/8/8/8/8/8/4KBN1 w - - 0 1", false},
		{"pawn", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false},
		{"rook", "4k3/8/8/8/8/8/8/4K2R w - - 0 1", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustState(t, tc.fen).IsInsufficientMaterial())
		})
	}
}

func TestStatesCompareByValue(t *testing.T) {
	s := NewBoardState()
	knightOut := s.Apply(NewMove(mustPos(t, "g1"), mustPos(t, "f3")))
	knightOut = knightOut.Apply(NewMove(mustPos(t, "g8"), mustPos(t, "f6")))
	knightBack := knightOut.Apply(NewMove(mustPos(t, "f3"), mustPos(t, "g1")))
	knightBack = knightBack.Apply(NewMove(mustPos(t, "f6"), mustPos(t, "g8")))

	assert.True(t, s == knightBack)

	counts := map[BoardState]int{s: 1}
	counts[knightBack]++
	assert.Equal(t, 2, counts[s])
}
