package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kopperchess/corechess/internal/chess"
)

func newTestTable(t *testing.T) *Table {
	tbl := NewTable(1)
	assert.Greater(t, tbl.Capacity(), uint64(0))
	return tbl
}

func TestGetMissOnEmptyTable(t *testing.T) {
	tbl := newTestTable(t)
	_, ok := tbl.Get(12345, 0)
	assert.False(t, ok)
}

func TestPutThenGetRoundTrip(t *testing.T) {
	tbl := newTestTable(t)
	m := chess.Move{From: chess.Coord{File: 4, Rank: 1}, To: chess.Coord{File: 4, Rank: 3}}
	tbl.Put(42, Entry{BestMove: m, Score: 17, Bound: Exact, Depth: 5}, 0)

	e, ok := tbl.Get(42, 0)
	assert.True(t, ok)
	assert.Equal(t, m, e.BestMove)
	assert.Equal(t, int16(17), e.Score)
	assert.Equal(t, Exact, e.Bound)
	assert.Equal(t, int8(5), e.Depth)
}

// Replacement rule 3a: an exact entry must never be demoted by a
// non-exact candidate for the same key, even one discovered at a greater
// search depth in a later iteration's bound-only pass.
func TestExactEntrySurvivesDeeperUpperBound(t *testing.T) {
	tbl := newTestTable(t)
	const key = 777

	tbl.Put(key, Entry{Score: 100, Bound: Exact, Depth: 10}, 0)
	tbl.Put(key, Entry{Score: 50, Bound: Upper, Depth: 12}, 0)

	e, ok := tbl.Get(key, 0)
	assert.True(t, ok)
	assert.Equal(t, Exact, e.Bound)
	assert.Equal(t, int16(100), e.Score)
	assert.Equal(t, int8(10), e.Depth)
}

// Rule 3b: a non-exact entry is always promoted to exact, regardless of
// relative depth.
func TestNonExactAlwaysPromotedToExact(t *testing.T) {
	tbl := newTestTable(t)
	const key = 778

	tbl.Put(key, Entry{Score: 30, Bound: Lower, Depth: 20}, 0)
	tbl.Put(key, Entry{Score: 45, Bound: Exact, Depth: 3}, 0)

	e, ok := tbl.Get(key, 0)
	assert.True(t, ok)
	assert.Equal(t, Exact, e.Bound)
	assert.Equal(t, int16(45), e.Score)
}

// Rule 3c: between two non-exact entries for the same key, the deeper one
// wins; a shallower candidate is dropped.
func TestNonExactPrefersGreaterDepth(t *testing.T) {
	tbl := newTestTable(t)
	const key = 779

	tbl.Put(key, Entry{Score: 10, Bound: Lower, Depth: 8}, 0)
	tbl.Put(key, Entry{Score: 20, Bound: Lower, Depth: 4}, 0)

	e, ok := tbl.Get(key, 0)
	assert.True(t, ok)
	assert.Equal(t, int16(10), e.Score)
	assert.Equal(t, int8(8), e.Depth)
}

// Rule 1: a slot untouched for more than stalenessPlies real-game plies is
// free game for a different key, independent of what it currently holds.
func TestStaleEntryEvictedByDifferentKey(t *testing.T) {
	tbl := newTestTable(t)
	idx := tbl.index(555)

	tbl.Put(555, Entry{Score: 1, Bound: Exact, Depth: 30}, 0)

	// Force a collision by choosing a different key that maps to the same
	// slot (key + capacity), so the test doesn't depend on finding a
	// natural collision, then confirm staleness eviction replaces it once
	// enough game plies have passed.
	collidingKey := 555 + tbl.capacity
	tbl.Put(collidingKey, Entry{Score: 2, Bound: Upper, Depth: 1}, stalenessPlies+1)

	e, ok := tbl.Get(collidingKey, stalenessPlies+1)
	assert.True(t, ok)
	assert.Equal(t, int16(2), e.Score)
	_ = idx
}

func TestClearRemovesAllEntries(t *testing.T) {
	tbl := newTestTable(t)
	tbl.Put(1, Entry{Score: 1, Bound: Exact, Depth: 1}, 0)
	tbl.Clear()
	_, ok := tbl.Get(1, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Hashfull())
}

func TestResizeChangesCapacityAndClears(t *testing.T) {
	tbl := newTestTable(t)
	tbl.Put(1, Entry{Score: 1, Bound: Exact, Depth: 1}, 0)
	before := tbl.Capacity()
	tbl.Resize(2)
	assert.GreaterOrEqual(t, tbl.Capacity(), before)
	_, ok := tbl.Get(1, 0)
	assert.False(t, ok)
}
