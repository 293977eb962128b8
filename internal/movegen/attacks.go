// Package movegen implements pseudo-legal move generation and the
// square-attacked predicate used both for check detection and for castling
// path safety. Grounded on the teacher's internal/movegen/movegen.go and
// internal/attacks/attacks.go, adapted from the teacher's bitboard/magic
// representation to a direct ray-scan over the chess.Position board array,
// which is what the design calls for (§4.C).
package movegen

import "github.com/kopperchess/corechess/internal/chess"

type offset struct{ df, dr int8 }

var diagonalDirs = [4]offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var orthogonalDirs = [4]offset{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
var allDirs = [8]offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}, {0, 1}, {0, -1}, {1, 0}, {-1, 0}}

var knightOffsets = [8]offset{
	{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

func isDiagonal(d offset) bool { return d.df != 0 && d.dr != 0 }

// IsSquareAttacked reports whether any piece of byColor can pseudo-legally
// capture onto sq in the given position (spec P5). Used both to test
// "is this king in check" and to test castling-path safety.
func IsSquareAttacked(pos *chess.Position, sq chess.Coord, byColor chess.Color) bool {
	// Eight compass directions: walk outward, stop at the first occupied
	// square. If it holds a byColor piece able to attack along that ray at
	// that distance, sq is attacked.
	for _, d := range allDirs {
		cur := chess.Coord{File: sq.File + d.df, Rank: sq.Rank + d.dr}
		dist := int8(1)
		for cur.Valid() {
			p := pos.PieceAt(cur)
			if !p.IsEmpty() {
				if p.Color == byColor {
					switch p.Kind {
					case Queen:
						return true
					case Bishop:
						if isDiagonal(d) {
							return true
						}
					case Rook:
						if !isDiagonal(d) {
							return true
						}
					case King:
						if dist == 1 {
							return true
						}
					}
				}
				break
			}
			cur = chess.Coord{File: cur.File + d.df, Rank: cur.Rank + d.dr}
			dist++
		}
	}

	// Eight knight offsets.
	for _, d := range knightOffsets {
		cur := chess.Coord{File: sq.File + d.df, Rank: sq.Rank + d.dr}
		if cur.Valid() {
			p := pos.PieceAt(cur)
			if p.Kind == Knight && p.Color == byColor {
				return true
			}
		}
	}

	// Two pawn-attack squares, from the defender's point of view: a pawn of
	// byColor advances toward increasing rank if white, decreasing if
	// black, and captures diagonally forward, so the squares that could
	// hold such an attacker sit one rank behind sq in that color's
	// direction of travel.
	pawnRankOffset := int8(-1)
	if byColor == chess.Black {
		pawnRankOffset = 1
	}
	for _, df := range [2]int8{-1, 1} {
		cur := chess.Coord{File: sq.File + df, Rank: sq.Rank + pawnRankOffset}
		if cur.Valid() {
			p := pos.PieceAt(cur)
			if p.Kind == Pawn && p.Color == byColor {
				return true
			}
		}
	}

	return false
}

// re-exported piece-kind aliases keep this file readable without a dot-import.
const (
	Pawn   = chess.Pawn
	Knight = chess.Knight
	Bishop = chess.Bishop
	Rook   = chess.Rook
	Queen  = chess.Queen
	King   = chess.King
)
