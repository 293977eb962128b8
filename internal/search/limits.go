package search

import "time"

// Limits describes a `go` command's search budget, grounded on the
// teacher's search/searchlimits.go.
type Limits struct {
	WTime      time.Duration
	BTime      time.Duration
	WInc       time.Duration
	BInc       time.Duration
	MoveTime   time.Duration // exact time for this move, if set
	MovesToGo  int           // 0 means "not given"
	Depth      int           // 0 means "not given" (use MaxDepth)
	Infinite   bool
}

// HasExplicitTime reports whether the limits carry a wall-clock budget at
// all (as opposed to a depth-only or infinite search).
func (l Limits) HasExplicitTime() bool {
	return l.MoveTime > 0 || l.WTime > 0 || l.BTime > 0
}
