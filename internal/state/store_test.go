package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/varlens/internal/variants"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestStore_UpdateRecordsCacheStats(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock, _ := fixedClock(start)
	s := NewStore(clock)

	s.Update(&variants.CacheStats{Entries: 4, Lists: 2, Individual: 1}, 3, nil)

	snap := s.Snapshot()
	if !snap.HasCache || snap.Cache.Entries != 4 || snap.Cache.Lists != 2 {
		t.Fatalf("snapshot cache = %#v, want entries=4 lists=2", snap.Cache)
	}
	if snap.Collected != 3 {
		t.Fatalf("Collected = %d, want 3", snap.Collected)
	}
	if !snap.LastRefreshed.Equal(start) || !snap.LastSuccess.Equal(start) {
		t.Fatalf("timestamps = %v/%v, want %v", snap.LastRefreshed, snap.LastSuccess, start)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock, advance := fixedClock(start)
	s := NewStore(clock)

	s.Update(&variants.CacheStats{Entries: 2}, 0, nil)
	advance(time.Minute)

	origErr := errors.New("boom")
	s.Update(nil, 0, origErr)

	snap := s.Snapshot()
	if snap.Cache.Entries != 2 {
		t.Fatalf("cache changed on error: got %#v", snap.Cache)
	}
	if !snap.LastSuccess.Equal(start) {
		t.Fatalf("LastSuccess = %v, want %v", snap.LastSuccess, start)
	}
	if !snap.LastRefreshed.Equal(start.Add(time.Minute)) {
		t.Fatalf("LastRefreshed = %v, want %v", snap.LastRefreshed, start.Add(time.Minute))
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError should wrap the original error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("zero store = %d failures offline=%v, want 0 false", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, 0, errors.New("fail 1"))
	if got := s.Failures(); got != 1 {
		t.Fatalf("Failures = %d, want 1", got)
	}
	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}

	s.Update(nil, 0, errors.New("fail 2"))
	if !s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	s.Update(nil, 0, errors.New("fail 3"))
	if got := s.Failures(); got != 3 {
		t.Fatalf("Failures = %d, want 3", got)
	}

	s.Update(&variants.CacheStats{}, 0, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success = %d failures offline=%v, want 0 false", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
