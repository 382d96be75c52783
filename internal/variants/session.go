package variants

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/reactive"
	"github.com/five82/varlens/internal/skeleton"
	"github.com/five82/varlens/internal/window"
)

// DefaultEnvironments shape deployment placeholders before the app's real
// environments are known.
var DefaultEnvironments = []string{"development", "staging", "production"}

// Options configures a Session.
type Options struct {
	AppID string
	Mode  Mode
	// Search is sent to the server with every list fetch. Client-side
	// narrowing goes through SetSearch.
	Search           string
	RevisionPageSize int
	Link             deeplink.Context
}

// Session is the query layer of one variant list view. It owns the view's
// reactive nodes and reads and writes the shared cache and window store.
type Session struct {
	params  Params
	cache   *querycache.Cache
	windows *window.Store
	log     *zap.Logger

	finder      *Finder
	queries     *Queries
	strategy    *Strategy
	invalidator *Invalidator

	win       *reactive.Atom[window.State]
	link      *reactive.Atom[deeplink.Context]
	selection *reactive.Atom[map[string]bool]
	filter    *reactive.Atom[Filter]

	loaded *reactive.Computed[querycache.Result[VariantList]]
	rows   *reactive.Computed[querycache.Result[[]Row]]
	stats  *reactive.Computed[querycache.Result[Stats]]
	meta   *reactive.Computed[window.Meta]

	mu      sync.Mutex
	unsubs  []func()
	started bool
	closed  bool

	syncing atomic.Bool
	// pending holds one bit per Trigger waiting for a pass.
	pending atomic.Uint32
}

// NewSession wires the query layer for opts.AppID. Call Start to begin
// fetching and Close when the view goes away.
func NewSession(cache *querycache.Cache, fetcher api.Fetcher, windows *window.Store, logger *zap.Logger, opts Options) (*Session, error) {
	if cache == nil || fetcher == nil || windows == nil {
		return nil, errors.New("session requires a cache, a fetcher and a window store")
	}
	appID := strings.TrimSpace(opts.AppID)
	if appID == "" {
		return nil, errors.New("app id required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeWindowed
	}
	if _, ok := ParseMode(string(mode)); !ok {
		return nil, fmt.Errorf("unknown list mode %q", mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("app_id", appID), zap.String("mode", string(mode)))

	s := &Session{
		params: Params{
			AppID:     appID,
			Mode:      mode,
			WindowKey: WindowKey(appID, mode),
			Search:    strings.TrimSpace(opts.Search),
		},
		cache:   cache,
		windows: windows,
		log:     logger,
	}
	s.finder = NewFinder(cache)
	s.queries = NewQueries(fetcher, cache, opts.RevisionPageSize)
	s.strategy = NewStrategy(fetcher, cache, s.finder, windows, logger)
	s.invalidator = NewInvalidator(cache, s.finder, s.queries, logger)

	s.win = windows.Acquire(s.params.WindowKey)
	s.link = reactive.NewAtomEqual(opts.Link, deeplink.Context.Equal)
	s.selection = reactive.NewAtomEqual(map[string]bool{}, equalSelection)
	s.filter = reactive.NewAtom(Filter{})

	s.loaded = reactive.NewComputed(s.computeLoaded, cache.Changes(), s.win, s.link)
	s.rows = reactive.NewComputed(s.computeRows, s.loaded, s.filter, s.selection)
	s.stats = reactive.NewComputed(func() querycache.Result[Stats] {
		return querycache.Map(s.loaded.Get(), func(l VariantList) Stats { return ComputeStats(l.Variants) })
	}, s.loaded)
	s.meta = reactive.NewComputed(func() window.Meta { return window.MetaOf(s.win.Get()) }, s.win)
	return s, nil
}

// Start subscribes the session to its inputs and issues the initial
// fetches. Later changes to the window, the deep link or the cache are
// followed by Sync automatically.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	onChange := func() { s.Sync(querycache.TriggerRead) }
	s.unsubs = append(s.unsubs,
		s.win.Subscribe(onChange),
		s.link.Subscribe(onChange),
		s.cache.Changes().Subscribe(onChange),
	)
	s.mu.Unlock()
	s.log.Debug("session started")
	s.Sync(querycache.TriggerMount)
}

// Close detaches the session from the cache and releases its window.
// Fetches already in flight still land in the cache.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
	s.meta.Close()
	s.stats.Close()
	s.rows.Close()
	s.loaded.Close()
	s.windows.Release(s.params.WindowKey)
	s.log.Debug("session closed")
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Sync ensures every query the view currently depends on. Reentrant calls
// made while a pass is running are folded into one more pass that honours
// every trigger received meanwhile.
func (s *Session) Sync(trigger querycache.Trigger) {
	s.pending.Or(1 << trigger)
	for {
		if !s.syncing.CompareAndSwap(false, true) {
			return
		}
		for {
			mask := s.pending.Swap(0)
			if mask == 0 {
				break
			}
			for _, t := range pendingTriggers(mask) {
				s.ensure(t)
			}
		}
		s.syncing.Store(false)
		if s.pending.Load() == 0 {
			return
		}
	}
}

// pendingTriggers expands a trigger mask. Every other trigger fetches what
// TriggerRead would, so Read runs only when it is alone.
func pendingTriggers(mask uint32) []querycache.Trigger {
	var out []querycache.Trigger
	for t := querycache.TriggerMount; t <= querycache.TriggerInterval; t++ {
		if mask&(1<<t) != 0 {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = append(out, querycache.TriggerRead)
	}
	return out
}

func (s *Session) ensure(trigger querycache.Trigger) {
	if s.isClosed() {
		return
	}
	queries := s.listQueries()
	for _, q := range queries {
		s.cache.Ensure(q, trigger)
	}
	s.cache.Ensure(s.queries.Environments(s.params.AppID), trigger)
	if s.params.Mode == ModeWindowed && len(queries) > 0 {
		s.settleWindow(queries[len(queries)-1])
	}
}

// settleWindow reports a settled current page to the window. A page already
// in the cache never runs its fetch, so the window hears about it here.
func (s *Session) settleWindow(current querycache.Query) {
	st := s.win.Get()
	e, ok := s.cache.Peek(current.Key)
	if !ok || e.Fetching {
		return
	}
	switch e.Status {
	case querycache.StatusSuccess:
		list, _ := e.Data.(VariantList)
		s.strategy.report(s.params.WindowKey, st.Offset, st.Limit, list, nil)
	case querycache.StatusError:
		s.strategy.report(s.params.WindowKey, st.Offset, st.Limit, VariantList{}, e.Err)
	}
}

// listQueries returns the list query of the current position and, in
// windowed mode, those of every earlier page.
func (s *Session) listQueries() []querycache.Query {
	link := s.link.Get()
	if s.params.Mode != ModeWindowed {
		return []querycache.Query{s.strategy.Build(s.params, link)}
	}
	st := s.windows.Get(s.params.WindowKey)
	if st.Limit <= 0 {
		return nil
	}
	queries := make([]querycache.Query, 0, st.Offset/st.Limit+1)
	for off := 0; off <= st.Offset; off += st.Limit {
		page := st
		page.Offset = off
		queries = append(queries, s.strategy.BuildAt(s.params, link, page))
	}
	return queries
}

func (s *Session) computeLoaded() querycache.Result[VariantList] {
	queries := s.listQueries()
	pages := make([]querycache.Result[VariantList], 0, len(queries))
	for _, q := range queries {
		pages = append(pages, querycache.ResultOf[VariantList](s.cache.Peek(q.Key)))
	}
	res := ConcatPages(pages)
	if !res.IsReady() {
		return res
	}
	if envs, ok := s.environments(); ok {
		res.Value.Variants = JoinDeployments(res.Value.Variants, envs)
	}
	return res
}

func (s *Session) environments() ([]api.Environment, bool) {
	res := querycache.ResultOf[[]api.Environment](s.cache.Peek(EnvironmentsKey(s.params.AppID)))
	return res.Value, res.IsReady()
}

func (s *Session) computeRows() querycache.Result[[]Row] {
	loaded := s.loaded.Get()
	st := s.win.Get()
	link := s.link.Get()

	envNames := DefaultEnvironments
	if envs, ok := s.environments(); ok && len(envs) > 0 {
		envNames = EnvironmentNames(envs)
	}
	limit := st.Limit
	if s.params.Mode != ModeWindowed {
		limit = s.windows.DefaultLimit()
	}
	pending := 0
	if s.params.Mode == ModeWindowed && st.IsLoading && loaded.IsReady() {
		pending = st.Limit
	}
	return BuildRows(loaded, s.filter.Get(), link, s.selection.Get(), pending, skeleton.Options{
		Count:        limit,
		Priority:     len(link.PriorityIDs),
		Environments: envNames,
	})
}

// Rows is the table-ready view of the loaded variants.
func (s *Session) Rows() querycache.Result[[]Row] { return s.rows.Get() }

// Loaded is the merged list before filtering.
func (s *Session) Loaded() querycache.Result[VariantList] { return s.loaded.Get() }

// Stats counts the loaded variants.
func (s *Session) Stats() querycache.Result[Stats] { return s.stats.Get() }

// Meta is the pagination metadata of the session's window.
func (s *Session) Meta() window.Meta { return s.meta.Get() }

// Window is the session's pagination state.
func (s *Session) Window() window.State { return s.win.Get() }

// Link is the current deep-link context.
func (s *Session) Link() deeplink.Context { return s.link.Get() }

// Filter is the current client-side filter.
func (s *Session) Filter() Filter { return s.filter.Get() }

// AppID is the app the session lists.
func (s *Session) AppID() string { return s.params.AppID }

// Mode is the list mode of the session.
func (s *Session) Mode() Mode { return s.params.Mode }

// Finder exposes cache lookups for diagnostics.
func (s *Session) Finder() *Finder { return s.finder }

// Subscribe registers fn to run whenever the rows may have changed.
func (s *Session) Subscribe(fn func()) func() { return s.rows.Subscribe(fn) }

// Selected returns the selected ids in sorted order.
func (s *Session) Selected() []string {
	sel := s.selection.Get()
	ids := make([]string, 0, len(sel))
	for id := range sel {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	return s.selection.Get()[id]
}

// Variant returns one variant from any cached list or its own entry,
// starting a fetch when neither holds it.
func (s *Session) Variant(id string) querycache.Result[api.Variant] {
	if v, ok := s.finder.FindVariant(id); ok {
		if envs, ok := s.environments(); ok {
			v = JoinDeployments([]api.Variant{v}, envs)[0]
		}
		return querycache.Ready(v)
	}
	return querycache.ResultOf[api.Variant](s.cache.Ensure(s.queries.Variant(id), querycache.TriggerRead))
}

// Revisions returns a variant's revision history, starting a fetch when it
// is missing.
func (s *Session) Revisions(variantID string) querycache.Result[[]api.Revision] {
	return querycache.ResultOf[[]api.Revision](s.cache.Ensure(s.queries.Revisions(variantID), querycache.TriggerRead))
}

// Revision returns one revision by number, starting a fetch when it is
// missing.
func (s *Session) Revision(variantID string, revision int) querycache.Result[api.Revision] {
	return querycache.ResultOf[api.Revision](s.cache.Ensure(s.queries.Revision(variantID, revision), querycache.TriggerRead))
}

// LoadList fetches the current list and blocks until it resolves.
func (s *Session) LoadList(ctx context.Context) (VariantList, error) {
	data, err := s.cache.Fetch(ctx, s.strategy.Build(s.params, s.link.Get()))
	if err != nil {
		return VariantList{}, err
	}
	list, ok := data.(VariantList)
	if !ok {
		return VariantList{}, fmt.Errorf("unexpected list payload %T", data)
	}
	if s.params.Mode != ModeEnhanced {
		envs, err := s.LoadEnvironments(ctx)
		if err != nil {
			return VariantList{}, err
		}
		list.Variants = JoinDeployments(list.Variants, envs)
	}
	return list, nil
}

// LoadEnvironments fetches the app's environments and blocks until they
// resolve.
func (s *Session) LoadEnvironments(ctx context.Context) ([]api.Environment, error) {
	data, err := s.cache.Fetch(ctx, s.queries.Environments(s.params.AppID))
	if err != nil {
		return nil, err
	}
	envs, _ := data.([]api.Environment)
	return envs, nil
}

// LoadVariant fetches one variant, using any cached copy first.
func (s *Session) LoadVariant(ctx context.Context, id string) (api.Variant, error) {
	if v, ok := s.finder.FindVariant(id); ok {
		return v, nil
	}
	data, err := s.cache.Fetch(ctx, s.queries.Variant(id))
	if err != nil {
		return api.Variant{}, err
	}
	v, _ := data.(api.Variant)
	return v, nil
}

// LoadRevisions fetches a variant's revision history.
func (s *Session) LoadRevisions(ctx context.Context, variantID string) ([]api.Revision, error) {
	data, err := s.cache.Fetch(ctx, s.queries.Revisions(variantID))
	if err != nil {
		return nil, err
	}
	revs, _ := data.([]api.Revision)
	return revs, nil
}

func equalSelection(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
