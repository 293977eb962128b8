// Package search implements the negamax alpha-beta core (this file) and
// the iterative-deepening driver with its time controller (engine.go).
// Grounded on the teacher's search/alphabeta.go and search/search.go, with
// the teacher's bitboard-oriented node loop replaced by the design's
// chess.Position/movegen pairing.
package search

import (
	"sort"
	"sync/atomic"

	"github.com/kopperchess/corechess/internal/chess"
	"github.com/kopperchess/corechess/internal/config"
	"github.com/kopperchess/corechess/internal/evaluator"
	"github.com/kopperchess/corechess/internal/movegen"
	"github.com/kopperchess/corechess/internal/tt"
)

// Score bounds. Infinity is kept short of int16's actual range so negating
// it never overflows. MateScore is "a large negative score offset from -Infinity by
// +1" per the design, so -Infinity itself stays reserved as a sentinel for
// states the search should never actually return.
const (
	Infinity  int16 = 32000
	MateScore int16 = -Infinity + 1

	// quiescenceDepthFloor bounds how far quiescence will recurse past the
	// ply=0 boundary before giving up and returning the stand-pat score.
	quiescenceDepthFloor int8 = -45

	// checkExtensionCentiply is the fixed bonus added to the running
	// extension counter at a shallow in-check node; a whole extra ply is
	// granted once the counter reaches 100. How shallow "shallow" is comes
	// from config.SearchConfig.CheckExtensionLimit.
	checkExtensionCentiply int16 = 50
)

// node bundles the per-search state the recursive ab() routine needs,
// replacing the teacher's pattern of reaching into Search-struct fields
// with a small value threaded explicitly through the call stack (the
// position itself, however, is still mutated in place via Apply/Unapply,
// per the design's ownership model, not copied per call).
type node struct {
	pos     *chess.Position
	table   *tt.Table
	eval    func(*chess.Position) int16
	stop    *atomic.Bool
	stats   *Statistics
	cfg     config.SearchConfig
	gamePly uint32
}

// ab implements both full-width alpha-beta (ply > 0) and quiescence
// (ply <= 0), per the design's single-routine
// model. It returns a score from the perspective of the side to move at
// pos (negamax convention); the caller negates.
func (n *node) ab(alpha, beta int16, ply int8, extCentiply int16, allowExtensions bool, inCheck bool) int16 {
	// 1. Cancellation: return a neutral score without touching the TT.
	if n.stop.Load() {
		return 0
	}
	n.stats.incNodes()

	inQuiescence := ply <= 0
	if inQuiescence {
		n.stats.incQNodes()
	}
	alpha0 := alpha

	// 2. TT probe.
	ttMove := chess.NoMove
	if e, ok := n.table.Get(uint64(n.pos.Hash()), n.gamePly); ok {
		n.stats.incTTHit()
		ttMove = e.BestMove
		if int8(e.Depth) >= ply {
			switch e.Bound {
			case tt.Exact, tt.QExact:
				return e.Score
			case tt.Lower, tt.QLower:
				if e.Score > alpha {
					alpha = e.Score
				}
			case tt.Upper, tt.QUpper:
				if e.Score < beta {
					beta = e.Score
				}
			}
			if alpha >= beta {
				return e.Score
			}
		}
	}

	// 4. Quiescence stand-pat. Skipped while in check: a side in check
	// cannot "stand pat" on an evaluation that ignores the threat, it must
	// resolve it, so standPat stays unused (and the floor below doesn't
	// apply) for in-check quiescence nodes.
	var standPat int16
	if inQuiescence && !inCheck {
		standPat = n.relativeEval()
		if standPat > alpha {
			alpha = standPat
		}
		if alpha >= beta {
			return standPat
		}
		if ply < quiescenceDepthFloor {
			return standPat
		}
	}

	// 5. Check extension (full-width only).
	extendedBranch := false
	if !inQuiescence && allowExtensions && inCheck && ply <= int8(n.cfg.CheckExtensionLimit) {
		extCentiply += checkExtensionCentiply
		n.stats.CheckExtensions++
	}

	// 3. Move generation (+ TT-move hint for best-first ordering). A
	// quiescence node where the side to move is in check must generate full
	// evasions, not just captures: a mate delivered right at the quiescence
	// boundary would otherwise be missed entirely (no capture escapes a
	// non-capture check, so the captures-only generator would come back
	// empty and the terminal check below would misreport it as a quiet
	// stand-pat score instead of checkmate).
	var moves []chess.Move
	capturesOnly := inQuiescence && !inCheck
	moves = movegen.Generate(n.pos, capturesOnly)

	// 6. Capture ordering (quiescence only): MVV/LVA, descending, stable so
	// the first move examined is the MVV/LVA-best capture.
	if capturesOnly {
		sortMVVLVA(moves, n.pos)
	}

	best := int16(-Infinity)
	bestMove := chess.NoMove
	legalMoveSeen := false

	tryMove := func(m chess.Move) (cutoff bool) {
		mover := n.pos.PieceAt(m.From)
		n.pos.Apply(m)
		ownKingAttacked := movegen.IsSquareAttacked(n.pos, n.pos.KingSquare(mover.Color), mover.Color.Opponent())
		if ownKingAttacked {
			n.pos.Unapply(m)
			return false
		}
		legalMoveSeen = true

		if capturesOnly && n.deltaPruned(m, standPat, alpha) {
			n.pos.Unapply(m)
			return false
		}

		childInCheck := movegen.IsSquareAttacked(n.pos, n.pos.KingSquare(mover.Color.Opponent()), mover.Color)

		childPly := ply - 1
		childExt := extCentiply
		childAllow := allowExtensions
		if !inQuiescence && !extendedBranch && childExt >= 100 {
			childPly++
			childExt -= 100
			childAllow = false
			extendedBranch = true
		} else if !inQuiescence && childExt <= -100 {
			childPly--
			childExt += 100
		}

		score := -n.ab(-beta, -alpha, childPly, childExt, childAllow, childInCheck)
		n.pos.Unapply(m)

		if score > best {
			best = score
			bestMove = m
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			n.stats.BetaCutoffs++
			return true
		}
		return false
	}

	// TT move first, if present and not already going to be found twice.
	if !ttMove.IsNone() {
		if tryMove(ttMove) {
			n.storeAndReturn(alpha0, alpha, beta, ply, bestMove, best, inQuiescence)
			return best
		}
	}
	for _, m := range moves {
		if !ttMove.IsNone() && m.Equals(ttMove) {
			continue
		}
		if tryMove(m) {
			break
		}
		if alpha >= beta {
			break
		}
	}

	// 8. Terminal detection. Checked mate takes priority over the
	// quiescence captures-only floor at any ply, full-width or not: a side
	// in check with no legal evasion is checkmate regardless of whether
	// this node happened to be a quiescence node.
	if !legalMoveSeen {
		if inCheck {
			return MateScore
		}
		if inQuiescence {
			return standPat
		}
		return 0 // stalemate
	}

	// 9. Quiescence floor (captures-only nodes only; an in-check node
	// searched every evasion, so its best score already reflects the true
	// position and needs no stand-pat floor).
	if capturesOnly && best < standPat {
		best = standPat
	}

	n.storeAndReturn(alpha0, alpha, beta, ply, bestMove, best, inQuiescence)
	return best
}

func (n *node) relativeEval() int16 {
	e := evaluatorScore(n.eval, n.pos)
	if n.pos.SideToMove() == chess.Black {
		return -e
	}
	return e
}

func evaluatorScore(eval func(*chess.Position) int16, pos *chess.Position) int16 {
	if eval != nil {
		return eval(pos)
	}
	return evaluator.Evaluate(pos)
}

// deltaPruned implements the supplemental quiescence delta-pruning term
// (SPEC_FULL.md §4.F / §10), grounded on the teacher's futility-pruning
// margin arrays in internal/search/alphabeta.go (materialEval+moveGain+
// margin <= alpha), narrowed to quiescence captures: a capture that cannot
// raise alpha even crediting it the full value of the captured piece plus
// a safety margin is hopeless and skipped without recursing. Disabled by
// setting the margin high enough that it can never fire, via config.
func (n *node) deltaPruned(m chess.Move, standPat, alpha int16) bool {
	if m.Captured.IsEmpty() {
		return false
	}
	margin := int16(n.cfg.DeltaPruningMargin)
	gain := materialValue(m.Captured.Kind)
	if m.PromoteTo != chess.NoKind {
		gain += materialValue(m.PromoteTo) - materialValue(chess.Pawn)
	}
	return standPat+gain+margin < alpha
}

func materialValue(k chess.PieceKind) int16 {
	switch k {
	case chess.Pawn:
		return evaluator.ValuePawn
	case chess.Knight:
		return evaluator.ValueKnight
	case chess.Bishop:
		return evaluator.ValueBishop
	case chess.Rook:
		return evaluator.ValueRook
	case chess.Queen:
		return evaluator.ValueQueen
	case chess.King:
		return evaluator.ValueKing
	}
	return 0
}

// storeAndReturn computes the bound type against the node's original alpha
// (alpha0) and beta, then stores via the table's replacement policy.
func (n *node) storeAndReturn(alpha0, _, beta int16, ply int8, bestMove chess.Move, best int16, inQuiescence bool) {
	if n.stop.Load() {
		return
	}
	bound := tt.Exact
	switch {
	case best <= alpha0:
		bound = tt.Upper
	case best >= beta:
		bound = tt.Lower
	}
	if inQuiescence {
		switch bound {
		case tt.Exact:
			bound = tt.QExact
		case tt.Upper:
			bound = tt.QUpper
		case tt.Lower:
			bound = tt.QLower
		}
	}
	n.table.Put(uint64(n.pos.Hash()), tt.Entry{
		BestMove: bestMove,
		Score:    best,
		Bound:    bound,
		Depth:    ply,
	}, n.gamePly)
}

// sortMVVLVA sorts captures by MVV/LVA: key = (victim_value << 2) -
// attacker_value, descending. pos must still be in the pre-move state the
// captures were generated from, since the attacker's piece kind is looked
// up by move.From.
func sortMVVLVA(moves []chess.Move, pos *chess.Position) {
	// Sort descending by MVV/LVA key; SliceStable keeps ties in generation
	// order so the first move examined is deterministically the same
	// across runs, matching the "reverse-stable with iteration order"
	// requirement.
	keys := make([]int32, len(moves))
	for i, m := range moves {
		attacker := materialValue(pos.PieceAt(m.From).Kind)
		keys[i] = int32(materialValue(m.Captured.Kind))<<2 - int32(attacker)
	}
	order := make([]int, len(moves))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] > keys[order[b]]
	})
	sorted := make([]chess.Move, len(moves))
	for i, k := range order {
		sorted[i] = moves[k]
	}
	copy(moves, sorted)
}
