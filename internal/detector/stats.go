package detector

import (
	"sync"
	"time"
)

// RecoStats tracks reconstruction statistics with thread-safe operations.
type RecoStats struct {
	mu           sync.Mutex
	eventCount   int64
	unitCount    int64
	clusterCount int64
	lastReset    time.Time
}

// NewRecoStats creates a new RecoStats instance.
func NewRecoStats() *RecoStats {
	return &RecoStats{
		lastReset: time.Now(),
	}
}

// AddEvent records one processed event with its per-event counters.
func (rs *RecoStats) AddEvent(units, clusters int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.eventCount++
	rs.unitCount += int64(units)
	rs.clusterCount += int64(clusters)
}

// Snapshot returns current stats without resetting.
func (rs *RecoStats) Snapshot() (events, units, clusters int64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.eventCount, rs.unitCount, rs.clusterCount
}

// GetAndReset returns current stats and resets counters.
func (rs *RecoStats) GetAndReset() (events, units, clusters int64, duration time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	now := time.Now()
	events, units, clusters = rs.eventCount, rs.unitCount, rs.clusterCount
	duration = now.Sub(rs.lastReset)
	rs.eventCount, rs.unitCount, rs.clusterCount = 0, 0, 0
	rs.lastReset = now
	return events, units, clusters, duration
}
