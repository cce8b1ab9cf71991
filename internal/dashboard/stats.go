package dashboard

import (
	"sync"
	"time"
)

const timeSeriesMinutes = 60

// Stats accumulates real-time statistics from pipeline events.
type Stats struct {
	mu sync.RWMutex

	totalRequests    uint64
	appliedCount     uint64
	passthroughCount uint64
	rejectedCount    uint64
	anonymousCount   uint64
	memoryOptOuts    uint64

	userCounts map[string]uint64

	// Per-minute buckets for the last 60 minutes
	timeBuckets [timeSeriesMinutes]timeBucket
}

type timeBucket struct {
	minute    time.Time // truncated to minute
	count     uint64
	anonymous uint64
}

// NewStats creates a new stats accumulator.
func NewStats() *Stats {
	return &Stats{
		userCounts: make(map[string]uint64),
	}
}

// Record ingests a single pipeline event.
func (s *Stats) Record(event *DashboardEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++

	switch {
	case event.Rejected:
		s.rejectedCount++
	case event.Applied:
		s.appliedCount++
	default:
		s.passthroughCount++
	}

	anonymous := false
	if event.Settings != nil {
		if event.Settings.AnonymousMode {
			s.anonymousCount++
			anonymous = true
		}
		if !event.Settings.SaveMemories {
			s.memoryOptOuts++
		}
	}

	if event.UserID != "" {
		s.userCounts[event.UserID]++
	}

	minute := event.Timestamp.Truncate(time.Minute)
	idx := minute.Minute() % timeSeriesMinutes
	if !s.timeBuckets[idx].minute.Equal(minute) {
		s.timeBuckets[idx] = timeBucket{minute: minute}
	}
	s.timeBuckets[idx].count++
	if anonymous {
		s.timeBuckets[idx].anonymous++
	}
}

// Snapshot returns a copy of the accumulated statistics.
func (s *Stats) Snapshot() *StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]uint64, len(s.userCounts))
	for k, v := range s.userCounts {
		users[k] = v
	}

	cutoff := time.Now().UTC().Add(-timeSeriesMinutes * time.Minute)
	var series []TimeSeriesPoint
	for _, b := range s.timeBuckets {
		if b.minute.IsZero() || b.minute.Before(cutoff) {
			continue
		}
		series = append(series, TimeSeriesPoint{
			Timestamp: b.minute,
			Count:     b.count,
			Anonymous: b.anonymous,
		})
	}

	return &StatsSnapshot{
		TotalRequests:    s.totalRequests,
		AppliedCount:     s.appliedCount,
		PassthroughCount: s.passthroughCount,
		RejectedCount:    s.rejectedCount,
		AnonymousCount:   s.anonymousCount,
		MemoryOptOuts:    s.memoryOptOuts,
		UserCounts:       users,
		TimeSeries:       series,
	}
}
