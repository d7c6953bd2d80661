package ccat

import "sync/atomic"

// Stats mirrors the teacher's Snmp shape: a flat struct of counters
// updated with atomic adds and snapshotted with Copy so a caller can poll
// it from another goroutine without taking the codec's single-threaded
// call discipline.
type Stats struct {
	OriginalsSubmitted     uint64
	OriginalsEvicted       uint64
	RecoveriesBuilt        uint64
	OriginalsAccepted      uint64
	RecoveriesAccepted     uint64
	DuplicatesDropped      uint64
	OutOfWindowDropped     uint64
	OriginalsRecovered     uint64
	RecoveriesDiscarded    uint64
	RankDeficientAttempts  uint64
	SolverPasses           uint64
	AllocationFailures     uint64
}

// Copy returns a point-in-time snapshot safe to read concurrently with
// further updates to the live Stats.
func (s *Stats) Copy() Stats {
	return Stats{
		OriginalsSubmitted:    atomic.LoadUint64(&s.OriginalsSubmitted),
		OriginalsEvicted:      atomic.LoadUint64(&s.OriginalsEvicted),
		RecoveriesBuilt:       atomic.LoadUint64(&s.RecoveriesBuilt),
		OriginalsAccepted:     atomic.LoadUint64(&s.OriginalsAccepted),
		RecoveriesAccepted:    atomic.LoadUint64(&s.RecoveriesAccepted),
		DuplicatesDropped:     atomic.LoadUint64(&s.DuplicatesDropped),
		OutOfWindowDropped:    atomic.LoadUint64(&s.OutOfWindowDropped),
		OriginalsRecovered:    atomic.LoadUint64(&s.OriginalsRecovered),
		RecoveriesDiscarded:   atomic.LoadUint64(&s.RecoveriesDiscarded),
		RankDeficientAttempts: atomic.LoadUint64(&s.RankDeficientAttempts),
		SolverPasses:          atomic.LoadUint64(&s.SolverPasses),
		AllocationFailures:    atomic.LoadUint64(&s.AllocationFailures),
	}
}

func (s *Stats) inc(counter *uint64) {
	atomic.AddUint64(counter, 1)
}
