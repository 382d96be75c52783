package variants

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/querycache"
)

func seedAll(fx fixture) {
	fx.cache.Set(ListKey("app1", ModeList, 0, 50, "", nil), VariantList{Variants: variantsOf("v1")}, time.Minute)
	fx.cache.Set(ListKey("app2", ModeList, 0, 50, "", nil), VariantList{Variants: variantsOf("w1")}, time.Minute)
	fx.cache.Set(EnvironmentsKey("app1"), []api.Environment{}, time.Minute)
	fx.cache.Set(VariantKey("v1"), variant("v1"), time.Minute)
	fx.cache.Set(VariantKey("v2"), variant("v2"), time.Minute)
	fx.cache.Set(RevisionsKey("v1"), []api.Revision{{ID: "r1"}}, time.Minute)
	fx.cache.Set(RevisionKey("r1"), api.Revision{ID: "r1"}, time.Minute)
	fx.cache.Set(RevisionNumberKey("v1", 1), api.Revision{ID: "r1"}, time.Minute)
}

func staleKeys(c *querycache.Cache) []string {
	var out []string
	for _, e := range c.Scan(nil) {
		if e.Stale {
			out = append(out, e.Key.String())
		}
	}
	return out
}

func TestInvalidate_Scopes(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   []string
	}{
		{
			name:   "app",
			target: Target{Scope: ScopeApp, ID: "app1"},
			want:   []string{"environments/app1", "variants/app1/list/0/50//p:"},
		},
		{
			name:   "entity",
			target: Target{Scope: ScopeEntity, ID: "v2"},
			want:   []string{"variant/v2", "variants/app1/list/0/50//p:", "variants/app2/list/0/50//p:"},
		},
		{
			name:   "relation",
			target: Target{Scope: ScopeRelation, ID: "r1", ParentID: "v1"},
			want: []string{
				"revision/r1",
				"revision/v1/1",
				"revisions/v1",
				"variant/v1",
				"variants/app1/list/0/50//p:",
				"variants/app2/list/0/50//p:",
			},
		},
		{
			name:   "blank id",
			target: Target{Scope: ScopeEntity},
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, &fakeFetcher{})
			seedAll(fx)
			iv := NewInvalidator(fx.cache, fx.finder, NewQueries(&fakeFetcher{}, fx.cache, 0), nil)

			if n := iv.Invalidate(tt.target); n != len(tt.want) {
				t.Fatalf("Invalidate = %d, want %d", n, len(tt.want))
			}
			if diff := cmp.Diff(tt.want, staleKeys(fx.cache)); diff != "" {
				t.Fatalf("stale keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvalidate_Idempotent(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{})
	seedAll(fx)
	iv := NewInvalidator(fx.cache, fx.finder, NewQueries(&fakeFetcher{}, fx.cache, 0), nil)

	iv.Invalidate(Target{Scope: ScopeApp, ID: "app1"})
	once := fx.cache.Scan(nil)
	iv.Invalidate(Target{Scope: ScopeApp, ID: "app1"})
	twice := fx.cache.Scan(nil)

	if diff := cmp.Diff(once, twice, cmp.Comparer(func(a, b error) bool { return errors.Is(a, b) })); diff != "" {
		t.Fatalf("second invalidation changed the cache (-once +twice):\n%s", diff)
	}
}

func TestPreload_FetchesOnlyMissing(t *testing.T) {
	f := &fakeFetcher{variants: map[string]api.Variant{"a": variant("a"), "c": variant("c")}}
	fx := newFixture(t, f)
	fx.cache.Set(VariantKey("b"), variant("b"), time.Minute)
	iv := NewInvalidator(fx.cache, fx.finder, NewQueries(f, fx.cache, 0), nil)

	started := iv.Preload("a", "b", "", "c")
	if diff := cmp.Diff([]string{"a", "c"}, started); diff != "" {
		t.Fatalf("started mismatch (-want +got):\n%s", diff)
	}
	waitFor(t, "preloaded variants", func() bool {
		_, okA := fx.finder.FindVariant("a")
		_, okC := fx.finder.FindVariant("c")
		return okA && okC
	})
	calls, _ := f.calls()
	if len(calls) != 2 {
		t.Fatalf("FetchVariant calls = %v, want 2", calls)
	}
}
