package search

import "github.com/kopperchess/corechess/internal/chess"

// Result is what one completed (or cancelled) iterative-deepening pass
// reports to its caller. Grounded on the teacher's search/result.go.
type Result struct {
	BestMove Move
	Score    int16
	Depth    int
	Nodes    uint64
	PV       []Move
	Hashfull int
}

// Move is a local alias kept so callers outside chess don't need to import
// it directly from the node-internals-heavy alphabeta.go.
type Move = chess.Move
