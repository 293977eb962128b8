// Package tt implements the transposition table: a concurrent, bounded,
// open-addressed hash store with an age-aware, depth-aware, PV-preserving
// replacement policy (spec §4.B). Grounded in shape on the teacher's
// transpositiontable/tt.go and ttentry.go, but generalized from the
// teacher's direct-mapped, never-probes table to the open-addressed linear
// probing the design requires (see DESIGN.md for why the teacher's table
// could not be reused as-is).
package tt

import (
	"sync/atomic"

	"github.com/kopperchess/corechess/internal/chess"
)

// Bound identifies which kind of alpha-beta result an Entry records.
type Bound uint8

const (
	// BoundNone marks a zero-value Entry; never stored.
	BoundNone Bound = iota
	Exact
	Lower
	Upper
	QExact
	QLower
	QUpper
)

// IsQuiescence reports whether b is one of the q_* variants.
func (b Bound) IsQuiescence() bool {
	return b == QExact || b == QLower || b == QUpper
}

// IsExact reports whether b is Exact or QExact.
func (b Bound) IsExact() bool {
	return b == Exact || b == QExact
}

// Entry is one slot's payload. Key 0 marks an empty slot.
type Entry struct {
	Key       uint64
	BestMove  chess.Move
	Score     int16
	Bound     Bound
	Depth     int8 // can be negative for quiescence entries
	lastAccess uint32 // game ply of last access; atomic, see Table.
}

func (e *Entry) loadLastAccess() uint32 {
	return atomic.LoadUint32(&e.lastAccess)
}

func (e *Entry) storeLastAccess(ply uint32) {
	atomic.StoreUint32(&e.lastAccess, ply)
}

// LastAccessGamePly returns the game ply this entry was last read or
// written at, used for age-based eviction.
func (e *Entry) LastAccessGamePly() uint32 {
	return e.loadLastAccess()
}
