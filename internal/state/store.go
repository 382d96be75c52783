package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/varlens/internal/variants"
)

// Snapshot is the refresher's view of API health plus the cache counts at
// the last refresh.
type Snapshot struct {
	Cache               variants.CacheStats
	HasCache            bool
	Collected           int
	LastRefreshed       time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has failed for multiple refreshes in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent access to the snapshot. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// NewStore returns a Store that stamps refreshes with now.
func NewStore(now func() time.Time) *Store {
	return &Store{now: now}
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Update records one refresh. When err is non-nil the previous cache counts
// are kept and the failure streak grows.
func (s *Store) Update(stats *variants.CacheStats, collected int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.snapshot.LastRefreshed = now
	s.snapshot.Collected += collected
	if stats != nil {
		s.snapshot.Cache = *stats
		s.snapshot.HasCache = true
	}
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.LastSuccess = now
	s.snapshot.ConsecutiveFailures = 0
}

// Failures returns the current failure streak.
func (s *Store) Failures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.ConsecutiveFailures
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
