package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kopperchess/corechess/internal/chess"
	"github.com/kopperchess/corechess/internal/config"
	"github.com/kopperchess/corechess/internal/tt"
)

// recordingReporter is a fake search.Reporter that just remembers the last
// of each callback, grounded on the teacher's pattern of swapping in a
// UciHandler double for search tests.
type recordingReporter struct {
	mu       sync.Mutex
	infos    []Info
	best     chess.Move
	ponder   chess.Move
	gotBest  bool
	messages []string
}

func (r *recordingReporter) SendInfo(i Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, i)
}

func (r *recordingReporter) SendBestMove(best, ponder chess.Move) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.best, r.ponder, r.gotBest = best, ponder, true
}

func (r *recordingReporter) SendInfoString(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, s)
}

func newTestEngine() (*Engine, *recordingReporter) {
	rep := &recordingReporter{}
	table := tt.NewTable(1)
	e := NewEngine(config.Default().Search, table, rep)
	return e, rep
}

func TestMateInOneFound(t *testing.T) {
	pos, err := chess.NewPositionFromFEN("7k/5ppp/8/8/8/8/8/R6K w - - 0 1")
	assert.NoError(t, err)

	e, rep := newTestEngine()
	e.StartSearch(pos, Limits{Depth: 3}, 0)
	e.WaitWhileSearching()

	assert.True(t, rep.gotBest)
	assert.Equal(t, "a1a8", rep.best.UCI())
	result := e.LastResult()
	// MateScore is the flat constant returned at the mated side's node, one
	// ply below the root; the side delivering mate (here, the root mover)
	// sees its negation, Infinity-1.
	assert.Equal(t, Infinity-1, result.Score)
	assert.Equal(t, 1, mateDistance(result.Score, result.Depth))
}

func TestStalemateIsHandledAtRoot(t *testing.T) {
	// Classic stalemate: black king h8 has no legal move and is not in
	// check (white queen f7 covers g8, g7 and h7; white king g6 guards the
	// queen).
	pos, err := chess.NewPositionFromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	assert.NoError(t, err)

	e, rep := newTestEngine()
	e.StartSearch(pos, Limits{Depth: 2}, 0)
	e.WaitWhileSearching()

	assert.True(t, rep.gotBest)
	assert.True(t, rep.best.IsNone())
	assert.Equal(t, int16(0), e.LastResult().Score)
}

func TestSetupTimeControlMoveTime(t *testing.T) {
	e, _ := newTestEngine()
	pos := chess.NewPosition()
	limit, use := e.setupTimeControl(pos, Limits{MoveTime: 500_000_000})
	assert.True(t, use)
	assert.Less(t, limit.Nanoseconds(), int64(500_000_000))
}

func TestSetupTimeControlDepthOnlyHasNoTimer(t *testing.T) {
	e, _ := newTestEngine()
	pos := chess.NewPosition()
	_, use := e.setupTimeControl(pos, Limits{Depth: 5})
	assert.False(t, use)
}

func TestSetupTimeControlDefaultMovesToGoUsesPlyCount(t *testing.T) {
	e, _ := newTestEngine()
	pos := chess.NewPosition() // GamePly() == 0, so movesToGo == 70-0 == 70
	limit, use := e.setupTimeControl(pos, Limits{WTime: 70 * time.Second})
	assert.True(t, use)
	assert.Equal(t, time.Second, limit)
}

func TestSetupTimeControlDefaultMovesToGoFloorsAtMinimum(t *testing.T) {
	e, _ := newTestEngine()
	// Fullmove 41, white to move: gamePly = 2*(41-1) = 80, comfortably past
	// assumedGameLength (70) so 70-ply_count would go negative without the
	// max(10, ...) floor.
	pos, err := chess.NewPositionFromFEN("8/8/8/4k3/8/8/8/4K3 w - - 0 41")
	assert.NoError(t, err)
	limit, use := e.setupTimeControl(pos, Limits{WTime: 100 * time.Second})
	assert.True(t, use)
	assert.Equal(t, 10*time.Second, limit)
}

func TestSetupTimeControlLowRemainingTimeUsesFixedFraction(t *testing.T) {
	e, _ := newTestEngine()
	pos := chess.NewPosition()
	limit, use := e.setupTimeControl(pos, Limits{WTime: 500 * time.Millisecond})
	assert.True(t, use)
	assert.Equal(t, 100*time.Millisecond, limit)
}

func TestReconstructPVStopsOnMissingEntry(t *testing.T) {
	e, _ := newTestEngine()
	pos := chess.NewPosition()
	pv := e.reconstructPV(pos, 5, 0)
	assert.Empty(t, pv)
}

func TestMateDistance(t *testing.T) {
	assert.Equal(t, -1, mateDistance(MateScore, 1))
	assert.Equal(t, 0, mateDistance(150, 1))
}
