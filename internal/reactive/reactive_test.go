package reactive

import (
	"testing"
)

func TestAtom_SetNotifies(t *testing.T) {
	a := NewAtom(1)
	calls := 0
	unsub := a.Subscribe(func() { calls++ })

	a.Set(2)
	if a.Get() != 2 || calls != 1 {
		t.Fatalf("Get/calls = %d/%d, want 2/1", a.Get(), calls)
	}

	unsub()
	unsub()
	a.Set(3)
	if calls != 1 {
		t.Fatalf("calls after unsubscribe = %d, want 1", calls)
	}
}

func TestAtomEqual_SkipsUnchanged(t *testing.T) {
	a := NewAtomEqual("x", func(a, b string) bool { return a == b })
	calls := 0
	a.Subscribe(func() { calls++ })

	if a.Update(func(s string) string { return s }) {
		t.Fatalf("Update reported change for equal value")
	}
	a.Set("y")
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestComputed_MemoisesUntilDependencyChanges(t *testing.T) {
	base := NewAtom(2)
	runs := 0
	double := NewComputed(func() int {
		runs++
		return base.Get() * 2
	}, base)
	defer double.Close()

	if double.Get() != 4 || double.Get() != 4 {
		t.Fatalf("Get = %d, want 4", double.Get())
	}
	if runs != 1 {
		t.Fatalf("runs = %d, want 1 (memoised)", runs)
	}

	base.Set(5)
	if double.Get() != 10 || runs != 2 {
		t.Fatalf("after Set Get/runs = %d/%d, want 10/2", double.Get(), runs)
	}
}

func TestComputed_PropagatesThroughChain(t *testing.T) {
	base := NewAtom(1)
	plusOne := NewComputed(func() int { return base.Get() + 1 }, base)
	squared := NewComputed(func() int { v := plusOne.Get(); return v * v }, plusOne)

	notified := 0
	squared.Subscribe(func() { notified++ })

	if squared.Get() != 4 {
		t.Fatalf("squared = %d, want 4", squared.Get())
	}
	base.Set(2)
	if notified != 1 {
		t.Fatalf("notified = %d, want 1", notified)
	}
	if squared.Get() != 9 {
		t.Fatalf("squared = %d, want 9", squared.Get())
	}

	squared.Close()
	plusOne.Close()
	if n := liveSubscriptions(base); n != 0 {
		t.Fatalf("base subscribers after Close = %d, want 0", n)
	}
}

func TestFamily_LazyCreateAndLRUEviction(t *testing.T) {
	created := map[string]int{}
	var evicted []string
	f, err := NewFamily(2, func(k string) *Atom[int] {
		created[k]++
		return NewAtom(len(k))
	}, func(k string, _ *Atom[int]) {
		evicted = append(evicted, k)
	})
	if err != nil {
		t.Fatalf("NewFamily returned error: %v", err)
	}

	a := f.Get("a")
	if f.Get("a") != a || created["a"] != 1 {
		t.Fatalf("Get should return the same member without recreating")
	}
	f.Get("bb")
	f.Get("a") // a is now most recently used
	f.Get("ccc")

	if len(evicted) != 1 || evicted[0] != "bb" {
		t.Fatalf("evicted = %v, want [bb]", evicted)
	}
	f.Get("bb")
	if created["bb"] != 2 {
		t.Fatalf("bb created %d times, want 2 after eviction", created["bb"])
	}
}

func TestFamily_PinnedMembersSurviveEviction(t *testing.T) {
	created := map[string]int{}
	f, err := NewFamily(1, func(k string) *Atom[int] {
		created[k]++
		return NewAtom(0)
	}, nil)
	if err != nil {
		t.Fatalf("NewFamily returned error: %v", err)
	}

	live := f.Pin("live")
	live.Set(7)
	f.Pin("live")
	for _, k := range []string{"a", "b", "c"} {
		f.Get(k)
	}
	if got := f.Get("live"); got != live || got.Get() != 7 {
		t.Fatalf("pinned member replaced after churn: value %d", got.Get())
	}

	f.Release("live")
	if f.Get("live") != live {
		t.Fatalf("member discarded while still pinned")
	}
	f.Release("live")
	if got := f.Get("live"); got == live || got.Get() != 0 || created["live"] != 2 {
		t.Fatalf("member should start afresh after the last Release")
	}
	f.Release("never-pinned")
}
