package window

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNext_NoOpWhenLoadingOrExhausted(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"loading", State{Offset: 50, Limit: 50, HasMore: true, IsLoading: true}},
		{"exhausted", State{Offset: 100, Limit: 50, HasMore: false, Total: 120}},
		{"both", State{Offset: 0, Limit: 10, HasMore: false, IsLoading: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.state, Next{}, DefaultLimit)
			if got != tt.state {
				t.Fatalf("Next changed state: got %+v want %+v", got, tt.state)
			}
		})
	}
}

func TestNext_AdvancesAndMarksLoading(t *testing.T) {
	got := Reduce(State{Offset: 50, Limit: 50, HasMore: true, Total: 120}, Next{}, DefaultLimit)
	want := State{Offset: 100, Limit: 50, HasMore: true, Total: 120, IsLoading: true}
	if got != want {
		t.Fatalf("Next = %+v, want %+v", got, want)
	}
}

func TestReset_AlwaysInitial(t *testing.T) {
	states := []State{
		{},
		{Offset: 300, Limit: 100, HasMore: false, Total: 320, IsLoading: true},
		{Offset: 50, Limit: 50, HasMore: true, Total: 120},
	}
	want := State{Offset: 0, Limit: 25, HasMore: true, Total: 0, IsLoading: false}
	for _, s := range states {
		if got := Reduce(s, Reset{}, 25); got != want {
			t.Fatalf("Reset(%+v) = %+v, want %+v", s, got, want)
		}
	}
}

func TestSetLimit_RewindsToFirstPage(t *testing.T) {
	got := Reduce(State{Offset: 100, Limit: 50, Total: 120}, SetLimit{Limit: 20}, DefaultLimit)
	if got != Initial(20) {
		t.Fatalf("SetLimit = %+v, want %+v", got, Initial(20))
	}
}

func TestMetaOf(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  Meta
	}{
		{"unknown total", State{Offset: 0, Limit: 50}, Meta{CurrentPage: 1, StartIndex: 0, EndIndex: 50}},
		{"middle page", State{Offset: 50, Limit: 50, Total: 120}, Meta{PageCount: 3, CurrentPage: 2, Progress: 100.0 / 120.0, StartIndex: 50, EndIndex: 100}},
		{"last page", State{Offset: 100, Limit: 50, Total: 120}, Meta{PageCount: 3, CurrentPage: 3, Progress: 1, StartIndex: 100, EndIndex: 120}},
		{"zero limit", State{Offset: 10}, Meta{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, MetaOf(tt.state)); diff != "" {
				t.Fatalf("MetaOf mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Walks a 120-item list with 50-item pages the way the query layer drives
// the store.
func TestStore_PagesThroughList(t *testing.T) {
	s, err := NewStore(DefaultLimit, 8)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	const key = "variants/app1"

	if got := s.Get(key); got != Initial(50) {
		t.Fatalf("initial = %+v, want %+v", got, Initial(50))
	}

	hasMore := func(st State, total int) bool { return st.Offset+st.Limit < total }

	st := s.Apply(key, SetTotal{Total: 120, HasMore: hasMore(s.Get(key), 120)})
	if !st.HasMore || st.Total != 120 {
		t.Fatalf("after first page = %+v, want hasMore and total 120", st)
	}

	st = s.Apply(key, Next{})
	if st.Offset != 50 || !st.IsLoading {
		t.Fatalf("after Next = %+v, want offset 50 loading", st)
	}
	if again := s.Apply(key, Next{}); again.Offset != 50 {
		t.Fatalf("Next while loading moved offset to %d", again.Offset)
	}
	st = s.Apply(key, SetTotal{Total: 120, HasMore: hasMore(st, 120)})
	if !st.HasMore || st.IsLoading {
		t.Fatalf("after second page = %+v, want hasMore, not loading", st)
	}

	st = s.Apply(key, Next{})
	st = s.Apply(key, SetTotal{Total: 120, HasMore: hasMore(st, 120)})
	if st.Offset != 100 || st.HasMore {
		t.Fatalf("after third page = %+v, want offset 100 and no more", st)
	}
	if final := s.Apply(key, Next{}); final.Offset != 100 {
		t.Fatalf("Next past the end moved offset to %d", final.Offset)
	}
}

func TestStore_NotifiesOnlyOnChange(t *testing.T) {
	s, err := NewStore(10, 0)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	calls := 0
	unsub := s.Acquire("w").Subscribe(func() { calls++ })
	defer unsub()

	s.Apply("w", SetLoading{IsLoading: true})
	s.Apply("w", Next{}) // loading, no-op
	s.Apply("w", SetLoading{IsLoading: true})
	if calls != 1 {
		t.Fatalf("notifications = %d, want 1", calls)
	}
}

func TestStore_DefaultLimitAppliesToNewWindows(t *testing.T) {
	s, err := NewStore(0, 0)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if s.DefaultLimit() != DefaultLimit {
		t.Fatalf("DefaultLimit = %d, want %d", s.DefaultLimit(), DefaultLimit)
	}
	s.SetDefaultLimit(20)
	if got := s.Get("fresh").Limit; got != 20 {
		t.Fatalf("new window limit = %d, want 20", got)
	}
}

func TestStore_AcquiredWindowSurvivesChurn(t *testing.T) {
	s, err := NewStore(10, 2)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	live := s.Acquire("live")
	s.Apply("live", SetTotal{Total: 40, HasMore: true})
	for i := 0; i < 5; i++ {
		s.Get(fmt.Sprintf("other-%d", i))
	}

	s.Apply("live", Next{})
	if st := live.Get(); st.Offset != 10 || !st.IsLoading {
		t.Fatalf("acquired window = %+v, want offset 10 and loading", st)
	}

	s.Release("live")
	if st := s.Get("live"); st != Initial(10) {
		t.Fatalf("released window = %+v, want initial state", st)
	}
}
