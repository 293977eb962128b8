package tt

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/op/go-logging"

	"github.com/kopperchess/corechess/internal/corelog"
)

const bytesPerEntry = int(unsafe.Sizeof(Entry{}))

// stalenessPlies is the fixed staleness threshold from replacement rule 1:
// a slot whose entry hasn't been touched in this many real-game plies is
// treated as free game for an incoming Put, independent of key or depth.
const stalenessPlies = 40

// highWaterMark schedules a pending clear once occupancy crosses this
// fraction of capacity (replacement rule 4).
const highWaterMark = 0.75

// maxProbeFactor bounds how far Put will linear-probe past a collision
// before giving up and recording a failed insert, as a fraction of
// capacity; the spec only requires giving up "if none within capacity".
const maxProbeFactor = 1.0

// Stats tracks table usage, primarily for UCI "hashfull" reporting and
// tests that exercise the replacement policy (spec P6/P7).
type Stats struct {
	Puts           uint64
	Collisions     uint64
	Overwrites     uint64
	Updates        uint64
	Probes         uint64
	Hits           uint64
	Misses         uint64
	FailedInserts  uint64
}

// Table is the transposition table. Safe for concurrent Get calls from any
// number of goroutines; Put serializes per-slot via a sharded mutex so
// concurrent probes into different slots don't contend. Resize and Clear
// are not safe to call concurrently with Put/Get and must only be invoked
// between searches (spec §5).
type Table struct {
	log *logging.Logger

	slots       []Entry
	locks       []sync.Mutex
	lockMask    uint64
	capacity    uint64
	pendingClear int32 // atomic bool

	Stats Stats
}

// NewTable creates a table sized to fit within sizeMB megabytes: capacity
// is the largest power of two of Entry structs that fit the budget.
func NewTable(sizeMB int) *Table {
	t := &Table{log: corelog.Get("tt")}
	t.Resize(sizeMB)
	return t
}

// Resize rebuilds the table for a new megabyte budget, clearing all
// entries. Not safe to call while a search is in flight.
func (t *Table) Resize(sizeMB int) {
	if sizeMB < 1 {
		sizeMB = 1
	}
	budget := uint64(sizeMB) * 1024 * 1024
	capacity := uint64(1)
	for capacity*2*uint64(bytesPerEntry) <= budget {
		capacity *= 2
	}
	t.capacity = capacity
	t.slots = make([]Entry, capacity)

	numLocks := capacity
	if numLocks > 4096 {
		numLocks = 4096
	}
	if numLocks < 1 {
		numLocks = 1
	}
	t.locks = make([]sync.Mutex, numLocks)
	t.lockMask = numLocks - 1
	atomic.StoreInt32(&t.pendingClear, 0)
	t.Stats = Stats{}
	t.log.Debugf("tt resized to %d MB, %d entries (%d bytes each)", sizeMB, capacity, bytesPerEntry)
}

// Clear zeroes all keys and resets statistics.
func (t *Table) Clear() {
	for i := range t.slots {
		t.slots[i] = Entry{}
	}
	atomic.StoreInt32(&t.pendingClear, 0)
	t.Stats = Stats{}
}

// Capacity returns the number of slots in the table.
func (t *Table) Capacity() uint64 { return t.capacity }

func (t *Table) index(key uint64) uint64 {
	if t.capacity == 0 {
		return 0
	}
	return key % t.capacity
}

func (t *Table) lockFor(idx uint64) *sync.Mutex {
	return &t.locks[idx&t.lockMask]
}

// Get probes from hash mod capacity, stopping on either a key match (hit)
// or an empty slot (miss). The hot path is lock-free: a reader that
// observes a nonzero key is guaranteed (by Put always writing the payload
// fields before the key, see writeLocked) to see a fully written entry for
// that key.
func (t *Table) Get(key uint64, gamePly uint32) (Entry, bool) {
	if t.capacity == 0 {
		return Entry{}, false
	}
	t.Stats.Probes++
	idx := t.index(key)
	for i := uint64(0); i < t.capacity; i++ {
		e := &t.slots[idx]
		k := atomic.LoadUint64(&e.Key)
		if k == 0 {
			t.Stats.Misses++
			return Entry{}, false
		}
		if k == key {
			e.storeLastAccess(gamePly)
			t.Stats.Hits++
			return Entry{Key: k, BestMove: e.BestMove, Score: e.Score, Bound: e.Bound, Depth: e.Depth}, true
		}
		idx = (idx + 1) % t.capacity
	}
	t.Stats.Misses++
	return Entry{}, false
}

// Put inserts or updates the entry for key, applying the four-rule
// replacement policy in order (spec §4.B):
//  1. staleness eviction,
//  2. forward probing past occupied, differently-keyed slots,
//  3. on a key match: never demote exact/q_exact, always promote to exact,
//     otherwise prefer the greater-or-equal depth,
//  4. while a clear is pending (occupancy crossed the high-water mark),
//     only overwrite already-occupied slots and leave empty ones alone.
func (t *Table) Put(key uint64, candidate Entry, gamePly uint32) {
	if t.capacity == 0 {
		return
	}
	candidate.Key = key
	t.Stats.Puts++

	idx := t.index(key)
	pending := atomic.LoadInt32(&t.pendingClear) != 0

	for probe := uint64(0); probe < uint64(float64(t.capacity)*maxProbeFactor); probe++ {
		lock := t.lockFor(idx)
		lock.Lock()
		e := &t.slots[idx]

		// Rule 1: staleness eviction, evaluated against whatever currently
		// occupies the slot we're looking at.
		if e.Key != 0 && e.Key != key && gamePly > e.loadLastAccess() && gamePly-e.loadLastAccess() > stalenessPlies {
			t.writeLocked(e, candidate, gamePly)
			lock.Unlock()
			t.maybeScheduleClear()
			return
		}

		if e.Key == 0 {
			if pending {
				// Rule 4: a clear is pending; don't grow occupancy further.
				lock.Unlock()
				idx = (idx + 1) % t.capacity
				continue
			}
			t.writeLocked(e, candidate, gamePly)
			lock.Unlock()
			t.maybeScheduleClear()
			return
		}

		if e.Key == key {
			t.Stats.Updates++
			t.applyReplacementRule3(e, candidate, gamePly)
			lock.Unlock()
			return
		}

		// Rule 2: occupied by a different, non-stale key -- probe forward.
		t.Stats.Collisions++
		lock.Unlock()
		idx = (idx + 1) % t.capacity
	}

	t.Stats.FailedInserts++
}

// applyReplacementRule3 implements the ordered sub-rules for an existing
// entry with a matching key.
func (t *Table) applyReplacementRule3(e *Entry, candidate Entry, gamePly uint32) {
	// 3a: never demote exact/q_exact to a weaker bound.
	if e.Bound.IsExact() {
		if candidate.Bound.IsExact() && candidate.Depth >= e.Depth {
			t.overwriteLocked(e, candidate, gamePly)
		} else {
			e.storeLastAccess(gamePly)
		}
		return
	}
	// 3b: always promote a non-exact entry to exact, regardless of depth.
	if candidate.Bound.IsExact() {
		t.overwriteLocked(e, candidate, gamePly)
		return
	}
	// 3c: otherwise prefer the entry with greater-or-equal depth.
	if candidate.Depth >= e.Depth {
		t.overwriteLocked(e, candidate, gamePly)
		return
	}
	e.storeLastAccess(gamePly)
}

// writeLocked installs candidate into a previously-empty (or stale,
// effectively-empty) slot.
func (t *Table) writeLocked(e *Entry, candidate Entry, gamePly uint32) {
	wasOccupied := e.Key != 0
	e.BestMove = candidate.BestMove
	e.Score = candidate.Score
	e.Bound = candidate.Bound
	e.Depth = candidate.Depth
	e.storeLastAccess(gamePly)
	// Publish the key last: a concurrent Get that observes a nonzero key
	// is guaranteed to see the payload fields written above.
	atomic.StoreUint64(&e.Key, candidate.Key)
	if wasOccupied {
		t.Stats.Overwrites++
	}
}

func (t *Table) overwriteLocked(e *Entry, candidate Entry, gamePly uint32) {
	t.Stats.Overwrites++
	e.BestMove = candidate.BestMove
	e.Score = candidate.Score
	e.Bound = candidate.Bound
	e.Depth = candidate.Depth
	e.storeLastAccess(gamePly)
	atomic.StoreUint64(&e.Key, candidate.Key)
}

func (t *Table) maybeScheduleClear() {
	if atomic.LoadInt32(&t.pendingClear) != 0 {
		return
	}
	if t.occupiedEstimate() >= uint64(float64(t.capacity)*highWaterMark) {
		atomic.StoreInt32(&t.pendingClear, 1)
	}
}

// occupiedEstimate walks the whole table. maybeScheduleClear calls it after
// every Put that fills a slot (until a clear is pending), and Hashfull
// reporting uses the same walk.
func (t *Table) occupiedEstimate() uint64 {
	var n uint64
	for i := range t.slots {
		if atomic.LoadUint64(&t.slots[i].Key) != 0 {
			n++
		}
	}
	return n
}

// ClearIfPending performs the deferred clear scheduled by the high-water
// mark, but only if the caller is between game moves, not mid-search (spec
// §4.B rule 4). The Driver is responsible for calling this only at a safe
// point.
func (t *Table) ClearIfPending() {
	if atomic.LoadInt32(&t.pendingClear) != 0 {
		t.Clear()
	}
}

// Hashfull returns how full the table is in permille, as UCI expects.
func (t *Table) Hashfull() int {
	if t.capacity == 0 {
		return 0
	}
	return int(1000 * t.occupiedEstimate() / t.capacity)
}
