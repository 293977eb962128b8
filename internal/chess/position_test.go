package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPositionStartFEN(t *testing.T) {
	p := NewPosition()
	assert.Equal(t, White, p.SideToMove())
	assert.True(t, p.HasCastleRight(WhiteKingside))
	assert.True(t, p.HasCastleRight(WhiteQueenside))
	assert.True(t, p.HasCastleRight(BlackKingside))
	assert.True(t, p.HasCastleRight(BlackQueenside))
	assert.Equal(t, StartFEN, p.FEN())
}

func TestApplyUnapplyRoundTrip(t *testing.T) {
	p := NewPosition()
	before := p.Clone()

	m := Move{From: Coord{File: 4, Rank: 1}, To: Coord{File: 4, Rank: 3}}
	p.Apply(m)
	assert.NotEqual(t, before.Hash(), p.Hash())
	assert.Equal(t, Pawn, p.PieceAt(m.To).Kind)
	assert.True(t, p.PieceAt(m.From).IsEmpty())

	p.Unapply(m)
	assert.Equal(t, before.Hash(), p.Hash())
	assert.Equal(t, *before, *p)
}

func TestApplyUnapplyCapture(t *testing.T) {
	p, err := NewPositionFromFEN("rnbqkbnr/pppp1ppp/8/4p3/3P4/8/PPP1PPPP/RNBQKBNR w KQkq - 0 1")
	assert.NoError(t, err)
	before := p.Clone()

	m := Move{From: Coord{File: 3, Rank: 3}, To: Coord{File: 4, Rank: 4}, Captured: NewPiece(Pawn, Black)}
	p.Apply(m)
	assert.Equal(t, Pawn, p.PieceAt(m.To).Kind)
	assert.Equal(t, White, p.PieceAt(m.To).Color)

	p.Unapply(m)
	assert.Equal(t, *before, *p)
}

func TestApplyUnapplyCastlingRevokesAndRestoresRights(t *testing.T) {
	p, err := NewPositionFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	assert.NoError(t, err)
	before := p.Clone()

	m := Move{From: Coord{File: 4, Rank: 0}, To: Coord{File: 6, Rank: 0}, CastleSide: Kingside}
	p.Apply(m)
	assert.False(t, p.HasCastleRight(WhiteKingside))
	assert.False(t, p.HasCastleRight(WhiteQueenside))
	assert.True(t, p.HasCastleRight(BlackKingside))
	assert.Equal(t, Coord{File: 6, Rank: 0}, p.KingSquare(White))
	assert.Equal(t, Rook, p.PieceAt(Coord{File: 5, Rank: 0}).Kind)

	p.Unapply(m)
	assert.Equal(t, *before, *p)
}

func TestApplyUnapplyPromotion(t *testing.T) {
	p, err := NewPositionFromFEN("8/P7/8/8/8/8/8/k6K w - - 0 1")
	assert.NoError(t, err)
	before := p.Clone()

	m := Move{From: Coord{File: 0, Rank: 6}, To: Coord{File: 0, Rank: 7}, PromoteTo: Queen}
	p.Apply(m)
	assert.Equal(t, Queen, p.PieceAt(m.To).Kind)

	p.Unapply(m)
	assert.Equal(t, *before, *p)
	assert.Equal(t, Pawn, p.PieceAt(m.From).Kind)
}

func TestHashNeverDriftsFromRehash(t *testing.T) {
	p := NewPosition()
	moves := []Move{
		{From: Coord{File: 4, Rank: 1}, To: Coord{File: 4, Rank: 3}},
		{From: Coord{File: 4, Rank: 6}, To: Coord{File: 4, Rank: 4}},
		{From: Coord{File: 6, Rank: 0}, To: Coord{File: 5, Rank: 2}},
	}
	for _, m := range moves {
		p.Apply(m)
		assert.Equal(t, p.rehash(), p.Hash())
	}
	for i := len(moves) - 1; i >= 0; i-- {
		p.Unapply(moves[i])
		assert.Equal(t, p.rehash(), p.Hash())
	}
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord("e4")
	assert.NoError(t, err)
	assert.Equal(t, Coord{File: 4, Rank: 3}, c)

	_, err = ParseCoord("z9")
	assert.Error(t, err)
}

func TestMoveUCI(t *testing.T) {
	m := Move{From: Coord{File: 0, Rank: 6}, To: Coord{File: 0, Rank: 7}, PromoteTo: Queen}
	assert.Equal(t, "a7a8q", m.UCI())
	assert.Equal(t, "0000", NoMove.UCI())
}
