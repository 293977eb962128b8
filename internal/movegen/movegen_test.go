package movegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kopperchess/corechess/internal/chess"
)

// perft counts the leaf nodes of the fully legal game tree rooted at pos to
// the given depth, filtering pseudo-legal moves down to legal ones by
// testing own-king safety after Apply, exactly as the search package does.
// Grounded on the teacher's movegen/perft.go, trimmed to the plain
// node-counting form (no capture/check/mate sub-counters, which the design
// doesn't require).
func perft(pos *chess.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var nodes uint64
	mover := pos.SideToMove()
	for _, m := range Generate(pos, false) {
		pos.Apply(m)
		if !IsSquareAttacked(pos, pos.KingSquare(mover), mover.Opponent()) {
			nodes += perft(pos, depth-1)
		}
		pos.Unapply(m)
	}
	return nodes
}

func TestPerftStartPosition(t *testing.T) {
	expected := map[int]uint64{
		1: 20,
		2: 400,
		3: 8_902,
	}
	pos := chess.NewPosition()
	for depth, want := range expected {
		assert.Equal(t, want, perft(pos, depth), "depth %d", depth)
	}
}

// Kiwipete, the standard perft stress position exercising castling, en
// passant and promotions together (https://www.chessprogramming.org/Perft_Results).
// En passant is out of this design's scope (see chess.NewPositionFromFEN's
// doc comment), so only the depth-1 move count -- which does not depend on
// en passant being generated -- is asserted.
const kiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func TestPerftKiwipeteDepth1(t *testing.T) {
	pos, err := chess.NewPositionFromFEN(kiwipeteFEN)
	assert.NoError(t, err)
	assert.Equal(t, uint64(48), perft(pos, 1))
}

func TestGenerateCapturesOnlyNeverEmitsCastling(t *testing.T) {
	pos, err := chess.NewPositionFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	assert.NoError(t, err)
	for _, m := range Generate(pos, true) {
		assert.Equal(t, chess.NoCastle, m.CastleSide)
	}
}

func TestIsSquareAttackedByKnight(t *testing.T) {
	pos, err := chess.NewPositionFromFEN("7k/8/8/3n4/8/8/8/K7 w - - 0 1")
	assert.NoError(t, err)
	assert.True(t, IsSquareAttacked(pos, chess.Coord{File: 1, Rank: 3}, chess.Black))
	assert.False(t, IsSquareAttacked(pos, chess.Coord{File: 0, Rank: 0}, chess.Black))
}

func TestGenCastlingBlockedByAttackedTransitSquare(t *testing.T) {
	// Black rook on f7 rakes down the f-file to f1, a square the king must
	// pass through on its way to g1, so kingside castling must not be
	// offered even though the king itself isn't in check.
	pos, err := chess.NewPositionFromFEN("4k3/5r2/8/8/8/8/8/R3K2R w KQ - 0 1")
	assert.NoError(t, err)
	for _, m := range Generate(pos, false) {
		if m.CastleSide == chess.Kingside {
			t.Fatalf("kingside castle offered through an attacked square: %v", m)
		}
	}
}
