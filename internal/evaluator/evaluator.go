// Package evaluator implements the static position evaluator: material,
// piece-square tables, a doubled-pawn penalty (grounded on
// original_source/evaluate.c's doubled_pawn_penalty), a bishop-pair bonus,
// and a passed-pawn bonus (the last one supplemented per SPEC_FULL.md
// §4.E / §10, grounded on the teacher's PawnPassedMidBonus/
// PawnPassedEndBonus config fields — original_source has no passed-pawn
// term of its own). Grounded overall on the teacher's evaluator/evaluator.go.
package evaluator

import "github.com/kopperchess/corechess/internal/chess"

// Material values in centipawns. The king value sits well below the mate
// score magnitude (see search package) while still dominating any ordinary
// material trade; 20000 was picked among the 20000/30000/60000 values seen
// across the design's revisions (see DESIGN.md).
const (
	ValuePawn   = 100
	ValueKnight = 320
	ValueBishop = 325
	ValueRook   = 500
	ValueQueen  = 900
	ValueKing   = 20000
)

var materialValue = [7]int16{0, ValuePawn, ValueKnight, ValueBishop, ValueRook, ValueQueen, ValueKing}

const doubledPawnPenalty = 12
const bishopPairBonus = 30

// passedPawnBonus[rank] is indexed by the pawn's rank from its own
// perspective (1 = still on its start rank, 6 = one step from promoting;
// no pawn stands on 0 or 7), scaled up
// non-linearly the way the teacher's mid/endgame passed-pawn bonus fields
// are tuned to reward pawns closer to promotion far more than early ones.
var passedPawnBonus = [8]int16{0, 5, 10, 20, 35, 60, 100, 0}

// Evaluate returns the static score in centipawns from White's perspective:
// positive favors White. The search package is responsible for negating
// this into the side-to-move-relative convention negamax expects.
func Evaluate(pos *chess.Position) int16 {
	var score int16
	var pawnFiles [2][8]int8
	bishops := [2]int8{}

	for f := int8(0); f < 8; f++ {
		for r := int8(0); r < 8; r++ {
			p := pos.PieceAt(chess.Coord{File: f, Rank: r})
			if p.IsEmpty() {
				continue
			}
			ci := colorSign(p.Color)
			score += ci * materialValue[p.Kind]
			score += ci * pstValue(p.Kind, p.Color, f, r)
			switch p.Kind {
			case chess.Pawn:
				pawnFiles[colorIdx(p.Color)][f]++
			case chess.Bishop:
				bishops[colorIdx(p.Color)]++
			}
		}
	}

	for c := 0; c < 2; c++ {
		sign := int16(1)
		if c == 1 {
			sign = -1
		}
		for f := 0; f < 8; f++ {
			if pawnFiles[c][f] >= 2 {
				score -= sign * doubledPawnPenalty
			}
		}
		if bishops[c] >= 2 {
			score += sign * bishopPairBonus
		}
	}

	score += passedPawnTerm(pos)

	return score
}

func passedPawnTerm(pos *chess.Position) int16 {
	var score int16
	for f := int8(0); f < 8; f++ {
		for r := int8(0); r < 8; r++ {
			p := pos.PieceAt(chess.Coord{File: f, Rank: r})
			if p.Kind != chess.Pawn {
				continue
			}
			if isPassed(pos, p.Color, f, r) {
				rankFromOwnSide := r
				if p.Color == chess.Black {
					rankFromOwnSide = 7 - r
				}
				score += colorSign(p.Color) * passedPawnBonus[rankFromOwnSide]
			}
		}
	}
	return score
}

// isPassed reports whether the pawn of color at (f, r) has no opposing pawn
// on its own file or either adjacent file, anywhere ahead of it in its
// direction of travel.
func isPassed(pos *chess.Position, color chess.Color, f, r int8) bool {
	opp := color.Opponent()
	dir := int8(1)
	if color == chess.Black {
		dir = -1
	}
	for df := int8(-1); df <= 1; df++ {
		file := f + df
		if file < 0 || file > 7 {
			continue
		}
		for rr := r + dir; rr >= 0 && rr <= 7; rr += dir {
			p := pos.PieceAt(chess.Coord{File: file, Rank: rr})
			if p.Kind == chess.Pawn && p.Color == opp {
				return false
			}
		}
	}
	return true
}

func colorSign(c chess.Color) int16 {
	if c == chess.Black {
		return -1
	}
	return 1
}

func colorIdx(c chess.Color) int {
	if c == chess.Black {
		return 1
	}
	return 0
}
