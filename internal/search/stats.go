package search

import "sync/atomic"

// Statistics are per-search-instance counters reset on every StartSearch
// call (spec §5: "Search statistics are per-search-instance and reset on
// each call"). Grounded on the teacher's search/statistics.go.
type Statistics struct {
	Nodes           uint64
	QNodes          uint64
	BetaCutoffs     uint64
	TTHits          uint64
	CheckExtensions uint64
}

func (s *Statistics) reset() {
	*s = Statistics{}
}

func (s *Statistics) incNodes() {
	atomic.AddUint64(&s.Nodes, 1)
}

func (s *Statistics) incQNodes() {
	atomic.AddUint64(&s.QNodes, 1)
}

func (s *Statistics) incTTHit() {
	atomic.AddUint64(&s.TTHits, 1)
}
