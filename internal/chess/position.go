package chess

import (
	"fmt"

	"github.com/kopperchess/corechess/internal/assert"
	"github.com/kopperchess/corechess/internal/zobrist"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is the full mutable game state: an 8x8 board of pieces, side to
// move, castling rights, and the bookkeeping Apply/Unapply need to be exact
// inverses of each other (incremental Zobrist hash, per-right "lost on ply"
// markers, cached king squares, and a ply counter).
//
// Position is a plain value type; descent through the search tree is by
// in-place mutation (Apply) with a matching Unapply on every return path,
// not by copying.
type Position struct {
	board      [8][8]Piece
	sideToMove Color
	rights     [4]bool
	lostOnPly  [4]int // -1 while the right is still held

	hash zobrist.Key

	lastMovePly int // ply index of the most recent Apply
	gamePly     int // monotonic with real game moves; used only for TT aging

	kingSq [2]Coord
}

// rookStart returns the corner square a rook must occupy for the given
// castling right to still be available, used both to emit castling moves
// and to detect when a move vacates it.
func rookStart(right CastleRight) Coord {
	switch right {
	case WhiteKingside:
		return Coord{File: 7, Rank: 0}
	case WhiteQueenside:
		return Coord{File: 0, Rank: 0}
	case BlackKingside:
		return Coord{File: 7, Rank: 7}
	default: // BlackQueenside
		return Coord{File: 0, Rank: 7}
	}
}

func kingStart(c Color) Coord {
	if c == White {
		return Coord{File: 4, Rank: 0}
	}
	return Coord{File: 4, Rank: 7}
}

func rightsForColor(c Color) (kingside, queenside CastleRight) {
	if c == White {
		return WhiteKingside, WhiteQueenside
	}
	return BlackKingside, BlackQueenside
}

// castleDestinations returns the king and rook squares the castling move
// lands on. Kingside king column is 6 (g), rook column 5 (f); queenside king
// column is 2 (c), rook column 3 (d) -- the chess-rule columns, disambiguated
// here because the design's castling destinations drifted between 2 and 3
// for queenside across revisions (see SPEC_FULL.md / DESIGN.md).
func castleDestinations(c Color, side CastleSide) (kingTo, rookFrom, rookTo Coord) {
	rank := int8(0)
	if c == Black {
		rank = 7
	}
	if side == Kingside {
		return Coord{File: 6, Rank: rank}, Coord{File: 7, Rank: rank}, Coord{File: 5, Rank: rank}
	}
	return Coord{File: 2, Rank: rank}, Coord{File: 0, Rank: rank}, Coord{File: 3, Rank: rank}
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := NewPositionFromFEN(StartFEN)
	if err != nil {
		panic("chess: start FEN failed to parse: " + err.Error())
	}
	return p
}

// Reset restores p to the standard starting position in place.
func (p *Position) Reset() {
	start := NewPosition()
	*p = *start
}

// PieceAt returns the piece occupying sq, or NoPiece.
func (p *Position) PieceAt(sq Coord) Piece {
	return p.board[sq.File][sq.Rank]
}

// SetPiece places (or clears, with NoPiece) a piece on sq without touching
// the incremental hash. Apply/Unapply never use it, since they must keep the
// hash consistent themselves; FEN parsing writes the board directly.
func (p *Position) SetPiece(sq Coord, piece Piece) {
	p.board[sq.File][sq.Rank] = piece
	if piece.Kind == King {
		p.kingSq[colorIdx(piece.Color)] = sq
	}
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color { return p.sideToMove }

// Hash returns the incrementally maintained Zobrist key.
func (p *Position) Hash() zobrist.Key { return p.hash }

// KingSquare returns the cached king coordinate for c.
func (p *Position) KingSquare(c Color) Coord { return p.kingSq[colorIdx(c)] }

// HasCastleRight reports whether the given right is currently held.
func (p *Position) HasCastleRight(r CastleRight) bool { return p.rights[r] }

// LastMovePly returns the ply index of the most recent Apply.
func (p *Position) LastMovePly() int { return p.lastMovePly }

// GamePly returns the monotonic real-game ply counter (distinct from the
// search tree's own ply counter), used only for TT aging.
func (p *Position) GamePly() int { return p.gamePly }

func colorIdx(c Color) int {
	if c == Black {
		return 1
	}
	return 0
}

// rehash recomputes the Zobrist key from scratch; used by construction and,
// in debug builds, to assert the incremental hash never drifts (I3 / P2).
func (p *Position) rehash() zobrist.Key {
	var b zobrist.Board
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			pc := p.board[f][r]
			if !pc.IsEmpty() {
				b[f][r].KindIdx = int8(pc.Kind)
				b[f][r].ColorIdx = int8(colorIdx(pc.Color))
			}
		}
	}
	return zobrist.Hash(b, colorIdx(p.sideToMove), p.rights)
}

// zobristPieceKey and friends translate chess's own types into the small
// integer indices the zobrist package deals in, keeping zobrist free of a
// dependency on chess (avoiding an import cycle, since chess depends on
// zobrist for the Key type).
func zobristPieceKey(p Piece, sq Coord) zobrist.Key {
	return zobrist.PieceKey(colorIdx(p.Color), int(p.Kind), sq.File, sq.Rank)
}

func zobristCastleKey(r CastleRight) zobrist.Key {
	return zobrist.CastleKey(int(r))
}

func sideToMoveKey() zobrist.Key {
	return zobrist.SideToMove()
}

// AssertInvariants checks I1-I3 (one king per color, cached king squares,
// incremental hash equal to a full rehash); castling flags are not checked.
// A no-op unless built with the debug tag (internal/assert).
func (p *Position) AssertInvariants() {
	if !assert.Enabled {
		return
	}
	whiteKings, blackKings := 0, 0
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			pc := p.board[f][r]
			if pc.Kind == King {
				if pc.Color == White {
					whiteKings++
					assert.Assert(p.kingSq[0] == (Coord{File: int8(f), Rank: int8(r)}), "white king cache stale")
				} else {
					blackKings++
					assert.Assert(p.kingSq[1] == (Coord{File: int8(f), Rank: int8(r)}), "black king cache stale")
				}
			}
		}
	}
	assert.Assert(whiteKings == 1, "expected exactly one white king, found %d", whiteKings)
	assert.Assert(blackKings == 1, "expected exactly one black king, found %d", blackKings)
	assert.Assert(p.hash == p.rehash(), "incremental zobrist hash drifted from full rehash")
}

// Clone returns a deep (value) copy suitable for PV reconstruction scratch
// walks, since Position holds no pointers or slices.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

func (p *Position) String() string {
	s := ""
	for r := int8(7); r >= 0; r-- {
		for f := int8(0); f < 8; f++ {
			s += p.PieceAt(Coord{File: f, Rank: r}).String()
		}
		s += "\n"
	}
	s += fmt.Sprintf("side to move: %s\n", p.sideToMove)
	return s
}
