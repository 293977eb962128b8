package search

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/sync/semaphore"

	"github.com/kopperchess/corechess/internal/chess"
	"github.com/kopperchess/corechess/internal/config"
	"github.com/kopperchess/corechess/internal/corelog"
	"github.com/kopperchess/corechess/internal/movegen"
	"github.com/kopperchess/corechess/internal/tt"
)

// MaxDepth is the hard ceiling on iterative deepening, independent of any
// configured max_depth (which may only lower it).
const MaxDepth = 100

// Info is one depth-completed (or periodic) progress report, handed to the
// Reporter for rendering as a UCI "info" line.
type Info struct {
	Depth    int
	SelDepth int
	Score    int16
	Mate     int // non-zero: moves to mate, sign gives side; 0 means "not a mate score"
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	Hashfull int
	PV       []chess.Move
}

// Reporter receives progress and final-result callbacks from a running
// search. The UCI package implements this to translate into the wire
// protocol; tests can supply a recording fake.
type Reporter interface {
	SendInfo(Info)
	SendBestMove(best, ponder chess.Move)
	SendInfoString(string)
}

// Engine is the iterative-deepening driver: one Engine owns one
// transposition table and runs at most one search at a time. Grounded on
// the teacher's search/search.go Search type, generalized from its
// opening-book/PVS/aspiration/MTDf machinery (not part of the design) down
// to plain iterative deepening with a wall-clock timer goroutine.
type Engine struct {
	log *logging.Logger

	cfg   config.SearchConfig
	table *tt.Table

	reporter Reporter

	initSemaphore *semaphore.Weighted
	isRunning     *semaphore.Weighted

	stopFlag atomic.Bool

	startTime time.Time
	stats     Statistics

	lastResult Result
}

// NewEngine builds an Engine around a pre-sized transposition table and a
// Reporter for UCI output.
func NewEngine(cfg config.SearchConfig, table *tt.Table, reporter Reporter) *Engine {
	return &Engine{
		log:           corelog.Get("search"),
		cfg:           cfg,
		table:         table,
		reporter:      reporter,
		initSemaphore: semaphore.NewWeighted(1),
		isRunning:     semaphore.NewWeighted(1),
	}
}

// NewGame resets engine state between games: stops any running search and
// clears the transposition table.
func (e *Engine) NewGame() {
	e.StopSearch()
	e.table.Clear()
}

// ClearHash clears the transposition table, refusing (with a log warning)
// while a search is in flight.
func (e *Engine) ClearHash() {
	if e.IsSearching() {
		e.log.Warning("cannot clear hash while searching")
		e.reporter.SendInfoString("cannot clear hash while searching")
		return
	}
	e.table.Clear()
}

// ResizeCache rebuilds the transposition table for a new size budget,
// refusing while a search is in flight.
func (e *Engine) ResizeCache(sizeMB int) {
	if e.IsSearching() {
		e.log.Warning("cannot resize hash while searching")
		e.reporter.SendInfoString("cannot resize hash while searching")
		return
	}
	e.table.Resize(sizeMB)
}

// IsSearching reports whether a search is currently running.
func (e *Engine) IsSearching() bool {
	if !e.isRunning.TryAcquire(1) {
		return true
	}
	e.isRunning.Release(1)
	return false
}

// WaitWhileSearching blocks until any running search has stopped.
func (e *Engine) WaitWhileSearching() {
	_ = e.isRunning.Acquire(context.Background(), 1)
	e.isRunning.Release(1)
}

// StartSearch begins a new search on pos under limits, returning once the
// search goroutine has initialized (not once it has finished). The Engine
// takes ownership of pos for the duration of the search and mutates it via
// Apply/Unapply; callers that need to keep using their own Position should
// pass a Clone.
func (e *Engine) StartSearch(pos *chess.Position, limits Limits, gamePly uint32) {
	_ = e.initSemaphore.Acquire(context.Background(), 1)
	go e.run(pos, limits, gamePly)
	_ = e.initSemaphore.Acquire(context.Background(), 1)
	e.initSemaphore.Release(1)
}

// StopSearch signals a running search to stop at its next cancellation
// check and waits for it to actually finish.
func (e *Engine) StopSearch() {
	e.stopFlag.Store(true)
	e.WaitWhileSearching()
}

// LastResult returns a copy of the most recently completed search result.
func (e *Engine) LastResult() Result {
	return e.lastResult
}

func (e *Engine) run(pos *chess.Position, limits Limits, gamePly uint32) {
	if !e.isRunning.TryAcquire(1) {
		e.log.Error("search already running")
		e.initSemaphore.Release(1)
		return
	}
	defer e.isRunning.Release(1)

	e.stopFlag.Store(false)
	e.startTime = time.Now()
	e.stats.reset()
	e.table.ClearIfPending()

	timeLimit, useTimer := e.setupTimeControl(pos, limits)
	if useTimer {
		e.startTimer(timeLimit)
	}

	e.initSemaphore.Release(1)

	result := e.iterativeDeepening(pos, limits, gamePly)
	result.Nodes = atomic.LoadUint64(&e.stats.Nodes)

	// Re-verify the reported move against the legal root moves; if it is
	// not one of them (or no iteration found one), report the first legal.
	mover := pos.SideToMove()
	fallback, verified := chess.NoMove, false
	for _, m := range movegen.Generate(pos, false) {
		pos.Apply(m)
		legal := !movegen.IsSquareAttacked(pos, pos.KingSquare(mover), mover.Opponent())
		pos.Unapply(m)
		if legal && fallback.IsNone() {
			fallback = m
		}
		verified = verified || (legal && m.Equals(result.BestMove))
	}
	if !verified {
		result.BestMove, result.PV = fallback, nil
	}

	e.stopFlag.Store(true)
	e.lastResult = result

	var ponder chess.Move
	if len(result.PV) > 1 {
		ponder = result.PV[1]
	}
	e.reporter.SendBestMove(result.BestMove, ponder)
}

func (e *Engine) iterativeDeepening(pos *chess.Position, limits Limits, gamePly uint32) Result {
	maxDepth := MaxDepth
	if e.cfg.MaxDepth > 0 && e.cfg.MaxDepth < maxDepth {
		maxDepth = e.cfg.MaxDepth
	}
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	n := &node{
		pos:     pos,
		table:   e.table,
		stop:    &e.stopFlag,
		stats:   &e.stats,
		cfg:     e.cfg,
		gamePly: gamePly,
	}

	inCheck := movegen.IsSquareAttacked(pos, pos.KingSquare(pos.SideToMove()), pos.SideToMove().Opponent())

	result := Result{BestMove: chess.NoMove}
	for depth := 1; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() && depth > 1 {
			break
		}
		score := n.ab(-Infinity, Infinity, int8(depth), 0, true, inCheck)
		if e.stopFlag.Load() && depth > 1 {
			// The partial result from an interrupted iteration is
			// unreliable past the root move itself; keep the previous
			// iteration's PV and score instead.
			break
		}

		pv := e.reconstructPV(pos, depth, gamePly)
		best := chess.NoMove
		if len(pv) > 0 {
			best = pv[0]
		}
		result = Result{
			BestMove: best,
			Score:    score,
			Depth:    depth,
			PV:       pv,
			Hashfull: e.table.Hashfull(),
		}

		e.reporter.SendInfo(Info{
			Depth:    depth,
			Score:    score,
			Mate:     mateDistance(score, depth),
			Nodes:    atomic.LoadUint64(&e.stats.Nodes),
			NPS:      nps(atomic.LoadUint64(&e.stats.Nodes), time.Since(e.startTime)),
			Time:     time.Since(e.startTime),
			Hashfull: result.Hashfull,
			PV:       pv,
		})

		if best.IsNone() {
			break
		}
	}
	return result
}

// reconstructPV walks a scratch clone of pos through the transposition
// table following each position's recorded best move, up to maxLen plies
// or the first miss/non-exact entry, per the design's TT-based PV
// recovery (no separate triangular PV table is kept).
func (e *Engine) reconstructPV(pos *chess.Position, maxLen int, gamePly uint32) []chess.Move {
	scratch := pos.Clone()
	pv := make([]chess.Move, 0, maxLen)
	seen := make(map[uint64]bool, maxLen)
	for i := 0; i < maxLen; i++ {
		key := uint64(scratch.Hash())
		if seen[key] {
			break
		}
		seen[key] = true
		entry, ok := e.table.Get(key, gamePly)
		if !ok || entry.BestMove.IsNone() || !entry.Bound.IsExact() {
			break
		}
		pv = append(pv, entry.BestMove)
		scratch.Apply(entry.BestMove)
	}
	return pv
}

// lowTimeThreshold is the "remaining time is below a small threshold"
// cutoff from the design's time-control formula (SPEC_FULL.md §4.G /
// spec.md §4.G); below it, lowTimeFraction of the remainder is used
// directly instead of dividing across an estimated movestogo.
const lowTimeThreshold = 1 * time.Second
const lowTimeFraction = 0.2

// minMovesToGo is the floor in `max(10, 70 − ply_count)`.
const minMovesToGo = 10

// assumedGameLength is the "70" in `max(10, 70 − ply_count)`: the plies a
// game is assumed to run for when movestogo isn't given, so the estimated
// moves remaining shrinks as the game goes on.
const assumedGameLength = 70

// setupTimeControl turns `go` command limits into a wall-clock budget for
// this search, grounded on the teacher's setupTimeControl: a direct
// movetime is used as-is (minus a safety margin); otherwise, if the
// remaining time is already below lowTimeThreshold, a fixed small fraction
// of it is spent directly; otherwise it's divided by movestogo when given,
// or by max(minMovesToGo, assumedGameLength − ply_count) when it isn't, per
// spec.md §4.G.
func (e *Engine) setupTimeControl(pos *chess.Position, limits Limits) (time.Duration, bool) {
	if limits.Infinite || (!limits.HasExplicitTime() && limits.Depth == 0) {
		return 0, false
	}
	if limits.MoveTime > 0 {
		d := limits.MoveTime - 20*time.Millisecond
		if d < 0 {
			d = limits.MoveTime
		}
		return d, true
	}
	if !limits.HasExplicitTime() {
		return 0, false
	}

	var timeLeft, inc time.Duration
	if pos.SideToMove() == chess.White {
		timeLeft, inc = limits.WTime, limits.WInc
	} else {
		timeLeft, inc = limits.BTime, limits.BInc
	}

	if timeLeft < lowTimeThreshold {
		perMove := time.Duration(float64(timeLeft) * lowTimeFraction)
		if perMove < 0 {
			perMove = 0
		}
		return perMove, true
	}

	movesToGo := int64(limits.MovesToGo)
	if movesToGo == 0 {
		movesToGo = int64(assumedGameLength - pos.GamePly())
		if movesToGo < minMovesToGo {
			movesToGo = minMovesToGo
		}
	}

	budget := timeLeft + time.Duration(movesToGo)*inc
	perMove := budget / time.Duration(movesToGo)
	if perMove < 0 {
		perMove = 0
	}
	return perMove, true
}

func (e *Engine) startTimer(limit time.Duration) {
	deadline := time.Now().Add(limit)
	go func() {
		for time.Now().Before(deadline) && !e.stopFlag.Load() {
			time.Sleep(5 * time.Millisecond)
		}
		e.stopFlag.Store(true)
	}()
}

func nps(nodes uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(nodes) / elapsed.Seconds())
}

// mateDistance reports moves-to-mate, i.e. (plies+1)/2 (signed: positive
// means the side to move is delivering it), when score is within depth+1
// plies of Infinity in magnitude, 0 otherwise.
func mateDistance(score int16, depth int) int {
	dist := Infinity - abs16(score)
	if int(dist) > depth+1 {
		return 0
	}
	plies := int(dist)
	if score < 0 {
		return -((plies + 1) / 2)
	}
	return (plies + 1) / 2
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
