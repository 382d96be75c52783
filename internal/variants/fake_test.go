package variants

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/window"
)

// fakeFetcher serves canned data with optional per-call delays.
type fakeFetcher struct {
	mu sync.Mutex

	variants  map[string]api.Variant
	page      api.VariantPage
	envs      []api.Environment
	revisions map[string][]api.Revision

	variantDelay time.Duration
	listDelay    time.Duration
	variantErr   error
	listErr      error

	variantCalls []string
	listCalls    []api.ListQuery
}

func (f *fakeFetcher) ListAppVariants(ctx context.Context, _ string, q api.ListQuery) (api.VariantPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, q)
	delay, page, err := f.listDelay, f.page, f.listErr
	f.mu.Unlock()
	if err := sleep(ctx, delay); err != nil {
		return api.VariantPage{}, err
	}
	return page, err
}

func (f *fakeFetcher) ListVariantRevisions(_ context.Context, variantID string, q api.PageQuery) (api.RevisionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.revisions[variantID]
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	start := q.Offset
	if start > end {
		start = end
	}
	return api.RevisionPage{Revisions: all[start:end], Total: len(all), HasMore: end < len(all)}, nil
}

func (f *fakeFetcher) FetchVariant(ctx context.Context, id string) (api.Variant, error) {
	f.mu.Lock()
	f.variantCalls = append(f.variantCalls, id)
	delay, err := f.variantDelay, f.variantErr
	v, ok := f.variants[id]
	f.mu.Unlock()
	if err := sleep(ctx, delay); err != nil {
		return api.Variant{}, err
	}
	if err != nil {
		return api.Variant{}, err
	}
	if !ok {
		return api.Variant{}, &api.StatusError{Path: "/variants/" + id, Code: 404}
	}
	return v, nil
}

func (f *fakeFetcher) FetchRevision(_ context.Context, variantID string, revision int) (api.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.revisions[variantID] {
		if r.Revision == revision {
			return r, nil
		}
	}
	return api.Revision{}, fmt.Errorf("revision %s@%d: %w", variantID, revision, api.ErrNotFound)
}

func (f *fakeFetcher) ListEnvironments(context.Context, string) ([]api.Environment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.envs, nil
}

func (f *fakeFetcher) calls() (variants []string, lists []api.ListQuery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.variantCalls...), append([]api.ListQuery(nil), f.listCalls...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func variant(id string) api.Variant {
	return api.Variant{ID: id, Name: "name-" + id, AppID: "app1", Revision: 1, Status: api.StatusActive}
}

func variantsOf(ids ...string) []api.Variant {
	out := make([]api.Variant, len(ids))
	for i, id := range ids {
		out[i] = variant(id)
	}
	return out
}

func ids(vs []api.Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

type fixture struct {
	cache    *querycache.Cache
	windows  *window.Store
	finder   *Finder
	strategy *Strategy
}

func newFixture(t *testing.T, f api.Fetcher) fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cache := querycache.New(querycache.Config{Logger: logger})
	t.Cleanup(cache.Close)
	windows, err := window.NewStore(window.DefaultLimit, 16)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	finder := NewFinder(cache)
	return fixture{
		cache:    cache,
		windows:  windows,
		finder:   finder,
		strategy: NewStrategy(f, cache, finder, windows, logger),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
