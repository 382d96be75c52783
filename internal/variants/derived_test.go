package variants

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/skeleton"
)

func boolPtr(b bool) *bool { return &b }

func sampleVariants() []api.Variant {
	return []api.Variant{
		{ID: "v1", Name: "Summariser", Revision: 3, Status: api.StatusActive, DeployedIn: []string{"production"}},
		{ID: "v2", Name: "classifier", Description: "routes tickets", Revision: 1, Status: api.StatusActive},
		{ID: "v3", Name: "old-summary", Revision: 2, Status: api.StatusArchived},
	}
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero passes all", Filter{}, []string{"v1", "v2", "v3"}},
		{"search name case-insensitive", Filter{Search: "SUMMAR"}, []string{"v1", "v3"}},
		{"search description", Filter{Search: "tickets"}, []string{"v2"}},
		{"search id", Filter{Search: "v3"}, []string{"v3"}},
		{"status", Filter{Status: api.StatusArchived}, []string{"v3"}},
		{"deployed", Filter{HasDeployment: boolPtr(true)}, []string{"v1"}},
		{"not deployed", Filter{HasDeployment: boolPtr(false)}, []string{"v2", "v3"}},
		{"multiple revisions and active", Filter{Status: api.StatusActive, MultipleRevisions: boolPtr(true)}, []string{"v1"}},
		{"no match", Filter{Search: "summar", HasDeployment: boolPtr(false), Status: api.StatusActive}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(sampleVariants()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if !(Filter{}).IsZero() || (Filter{Status: "x"}).IsZero() {
		t.Fatalf("IsZero misreports")
	}
}

func TestComputeStats(t *testing.T) {
	got := ComputeStats(sampleVariants())
	want := Stats{Total: 3, Active: 2, Archived: 1, Deployed: 1}
	if got != want {
		t.Fatalf("ComputeStats = %+v, want %+v", got, want)
	}
}

func TestConcatPages(t *testing.T) {
	page0 := querycache.Ready(VariantList{Variants: variantsOf("p", "a", "b"), Total: 5, HasMore: true, PriorityCount: 1})
	page1 := querycache.Ready(VariantList{Variants: variantsOf("p", "c", "a"), Total: 5, HasMore: false, PriorityCount: 1})

	got := ConcatPages([]querycache.Result[VariantList]{page0, page1})
	if !got.IsReady() {
		t.Fatalf("ConcatPages state = %v, want ready", got.State)
	}
	if diff := cmp.Diff([]string{"p", "a", "b", "c"}, ids(got.Value.Variants)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got.Value.HasMore || got.Value.PriorityCount != 1 {
		t.Fatalf("ConcatPages = %+v, want last page totals and one priority item", got.Value)
	}

	partial := ConcatPages([]querycache.Result[VariantList]{page0, querycache.Loading[VariantList]()})
	if !partial.IsReady() || len(partial.Value.Variants) != 3 {
		t.Fatalf("loading later page = %+v, want first page ready", partial)
	}
	if first := ConcatPages([]querycache.Result[VariantList]{querycache.Loading[VariantList](), page1}); first.State != querycache.StateLoading {
		t.Fatalf("loading first page state = %v, want loading", first.State)
	}
	boom := errors.New("boom")
	if failed := ConcatPages([]querycache.Result[VariantList]{page0, querycache.Failed[VariantList](boom)}); !errors.Is(failed.Err, boom) {
		t.Fatalf("failed page err = %v, want %v", failed.Err, boom)
	}
}

func TestBuildRows_PlaceholdersAndRealRowsNeverMix(t *testing.T) {
	opts := skeleton.Options{Count: 4, Priority: 1, Environments: []string{"development", "production"}}

	loading := BuildRows(querycache.Loading[VariantList](), Filter{}, deeplink.Context{}, nil, 0, opts)
	if loading.State != querycache.StateLoading || len(loading.Value) != 4 {
		t.Fatalf("loading rows = %+v, want 4 placeholders", loading)
	}
	for _, r := range loading.Value {
		if _, isReal := r.Variant(); isReal || !r.IsSkeleton() {
			t.Fatalf("loading row %s is not a placeholder", r.ID())
		}
	}

	link := deeplink.Context{PriorityIDs: []string{"v2"}}
	ready := querycache.Ready(VariantList{Variants: sampleVariants()})
	rows := BuildRows(ready, Filter{}, link, map[string]bool{"v3": true}, 0, opts)
	if !rows.IsReady() || len(rows.Value) != 3 {
		t.Fatalf("ready rows = %+v, want 3 real rows", rows)
	}
	for _, r := range rows.Value {
		if r.IsSkeleton() || skeleton.IsSkeletonID(r.ID()) {
			t.Fatalf("ready data produced placeholder %s", r.ID())
		}
		v, _ := r.Variant()
		if v.Priority != (v.ID == "v2") || v.Selected != (v.ID == "v3") {
			t.Fatalf("row %+v has wrong priority/selected flags", v)
		}
	}

	more := BuildRows(ready, Filter{Status: api.StatusArchived}, link, nil, 2, opts)
	if len(more.Value) != 3 {
		t.Fatalf("rows with pending page = %d, want 1 real + 2 placeholders", len(more.Value))
	}
	if more.Value[0].IsSkeleton() || !more.Value[1].IsSkeleton() || !more.Value[2].IsSkeleton() {
		t.Fatalf("placeholders must follow real rows")
	}
	if p, _ := more.Value[1].Placeholder(); p.Priority {
		t.Fatalf("pending-page placeholders should not be priority")
	}

	boom := errors.New("boom")
	if failed := BuildRows(querycache.Failed[VariantList](boom), Filter{}, link, nil, 0, opts); failed.State != querycache.StateFailed || len(failed.Value) != 0 {
		t.Fatalf("failed rows = %+v, want failed without rows", failed)
	}
}

func TestJoinDeployments(t *testing.T) {
	vs := variantsOf("a", "b")
	envs := []api.Environment{{Name: "staging", DeployedVariantID: "a"}, {Name: "development", DeployedVariantID: "a"}}
	got := JoinDeployments(vs, envs)
	if diff := cmp.Diff([]string{"development", "staging"}, got[0].DeployedIn); diff != "" {
		t.Fatalf("DeployedIn mismatch (-want +got):\n%s", diff)
	}
	if vs[0].DeployedIn != nil {
		t.Fatalf("JoinDeployments mutated its input")
	}
	if diff := cmp.Diff([]string{"staging", "development"}, EnvironmentNames(envs)); diff != "" {
		t.Fatalf("EnvironmentNames mismatch (-want +got):\n%s", diff)
	}
}
