package monitor

import (
	"sync/atomic"
)

// WorkloadStats counts index operations. Safe for concurrent use.
type WorkloadStats struct {
	InsertCount    uint64
	DuplicateCount uint64
	SearchCount    uint64
	HitCount       uint64
	FilteredCount  uint64
	RemoveCount    uint64
}

func NewWorkloadStats() *WorkloadStats {
	return &WorkloadStats{}
}

func (ws *WorkloadStats) RecordInsert() {
	atomic.AddUint64(&ws.InsertCount, 1)
}

func (ws *WorkloadStats) RecordDuplicate() {
	atomic.AddUint64(&ws.DuplicateCount, 1)
}

func (ws *WorkloadStats) RecordSearch() {
	atomic.AddUint64(&ws.SearchCount, 1)
}

func (ws *WorkloadStats) RecordHit() {
	atomic.AddUint64(&ws.HitCount, 1)
}

// RecordFiltered counts searches answered by the bloom filter alone.
func (ws *WorkloadStats) RecordFiltered() {
	atomic.AddUint64(&ws.FilteredCount, 1)
}

func (ws *WorkloadStats) RecordRemove() {
	atomic.AddUint64(&ws.RemoveCount, 1)
}

// HitRatio is the share of searches that found a record.
func (ws *WorkloadStats) HitRatio() float64 {
	searches := atomic.LoadUint64(&ws.SearchCount)
	if searches == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&ws.HitCount)) / float64(searches)
}

func (ws *WorkloadStats) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"inserts":    atomic.LoadUint64(&ws.InsertCount),
		"duplicates": atomic.LoadUint64(&ws.DuplicateCount),
		"searches":   atomic.LoadUint64(&ws.SearchCount),
		"hits":       atomic.LoadUint64(&ws.HitCount),
		"filtered":   atomic.LoadUint64(&ws.FilteredCount),
		"removes":    atomic.LoadUint64(&ws.RemoveCount),
		"hit_ratio":  ws.HitRatio(),
	}
}
