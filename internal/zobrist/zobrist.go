// Package zobrist provides the 64-bit hashing primitives shared by the
// position mutator and the transposition table. Grounded on the teacher's
// position/zobrist.go: a 64x12 square/piece table plus one key per castling
// right and one side-to-move key, all drawn once from a seeded PRNG.
//
// The package is deliberately independent of the chess package (which
// depends on it for Key) so it only deals in small integer indices:
// color 0=white/1=black, piece kind 1..6 (0 is unused, kept so callers can
// index PieceKind values directly), file/rank 0..7, castling right 0..3.
package zobrist

import (
	"math/rand"
	"sync"
)

// Key is a 64-bit Zobrist hash. The zero value is reserved by the
// transposition table as "empty slot". The Key accessors below never return
// it, since Init rejects a zero draw for every component; a full Hash is an
// XOR of such keys and is zero only with negligible probability.
type Key uint64

var (
	pieceKeys     [2][7][8][8]Key
	castleKeys    [4]Key
	sideToMoveKey Key

	once sync.Once
)

// seed is fixed so that perft and regression tests are reproducible across
// runs; it carries no chess meaning.
const seed = 0x5EED5EEDC0FFEE

func nonZero(r *rand.Rand) Key {
	for {
		if k := Key(r.Uint64()); k != 0 {
			return k
		}
	}
}

// Init populates the global key tables. Safe to call multiple times; only
// the first call has effect. Must run before any Hash/PieceKey/etc. call.
// The engine's init path calls this once at process start.
func Init() {
	once.Do(func() {
		r := rand.New(rand.NewSource(seed))
		for c := 0; c < 2; c++ {
			for k := 1; k < 7; k++ {
				for f := 0; f < 8; f++ {
					for rk := 0; rk < 8; rk++ {
						pieceKeys[c][k][f][rk] = nonZero(r)
					}
				}
			}
		}
		for i := range castleKeys {
			castleKeys[i] = nonZero(r)
		}
		sideToMoveKey = nonZero(r)
	})
}

// PieceKey returns the key to XOR when placing or removing a piece of the
// given color (0 white, 1 black) and kind (1..6) on (file, rank).
func PieceKey(colorIdx, kindIdx int, file, rank int8) Key {
	return pieceKeys[colorIdx][kindIdx][file][rank]
}

// CastleKey returns the key to XOR when castling right index r (0..3) is
// gained or lost.
func CastleKey(r int) Key {
	return castleKeys[r]
}

// SideToMove returns the key to XOR whenever the side to move toggles.
func SideToMove() Key {
	return sideToMoveKey
}

// Board is the minimal shape Hash needs: a color index, kind index (0 for
// empty), for every square, indexed [file][rank].
type Board [8][8]struct {
	ColorIdx int8
	KindIdx  int8 // 0 means empty
}

// Hash computes the Zobrist key of a position from scratch, given the board,
// the side to move (0 white, 1 black), and which of the 4 castling rights
// are currently held. Used at construction time and, in debug builds, to
// assert the incrementally maintained key never drifts (spec I3 / P2).
func Hash(board Board, sideToMoveIdx int, rights [4]bool) Key {
	var h Key
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			sq := board[f][r]
			if sq.KindIdx != 0 {
				h ^= pieceKeys[sq.ColorIdx][sq.KindIdx][f][r]
			}
		}
	}
	for i, held := range rights {
		if held {
			h ^= castleKeys[i]
		}
	}
	if sideToMoveIdx == 1 {
		h ^= sideToMoveKey
	}
	return h
}
