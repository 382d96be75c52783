package variants

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/window"
)

// VariantList is the merged result of a list query.
type VariantList struct {
	// Variants holds priority items first, then the regular page.
	Variants []api.Variant
	Total    int
	HasMore  bool
	// PriorityCount is the number of leading priority items.
	PriorityCount int
}

// Params selects the list a Strategy builds a query for.
type Params struct {
	AppID string
	Mode  Mode
	// WindowKey names the pagination window read by ModeWindowed.
	WindowKey string
	// Search is sent to the server with the regular fetch.
	Search string
}

// Strategy turns window state, deep-link priority and cache contents into a
// single list query.
type Strategy struct {
	api     api.Fetcher
	cache   *querycache.Cache
	finder  *Finder
	windows *window.Store
	log     *zap.Logger
}

// NewStrategy wires a strategy.
func NewStrategy(fetcher api.Fetcher, cache *querycache.Cache, finder *Finder, windows *window.Store, logger *zap.Logger) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{api: fetcher, cache: cache, finder: finder, windows: windows, log: logger}
}

// Build returns the query for p at the window's current position.
func (s *Strategy) Build(p Params, link deeplink.Context) querycache.Query {
	var st window.State
	if p.Mode == ModeWindowed {
		st = s.windows.Get(p.WindowKey)
	}
	return s.BuildAt(p, link, st)
}

// BuildAt returns the query for p at an explicit window position. It is used
// to address pages before the current one.
func (s *Strategy) BuildAt(p Params, link deeplink.Context, st window.State) querycache.Query {
	offset, limit := 0, 0
	switch p.Mode {
	case ModeWindowed:
		offset, limit = st.Offset, st.Limit
	case ModeList:
		limit = s.windows.DefaultLimit()
	}
	search := strings.TrimSpace(p.Search)

	opts := DefaultOptions(strings.TrimSpace(p.AppID) != "")
	if !link.Empty() {
		opts.StaleTime = PriorityStaleTime
		opts.RefetchOnMount = true
		opts.RefetchOnFocus = true
	}

	return querycache.Query{
		Key: ListKey(p.AppID, p.Mode, offset, limit, search, link.PriorityIDs),
		Fetch: func(ctx context.Context) (any, error) {
			list, err := s.fetch(ctx, p, search, link, offset, limit, opts)
			if p.Mode == ModeWindowed {
				s.report(p.WindowKey, offset, limit, list, err)
			}
			if err != nil {
				return nil, err
			}
			return list, nil
		},
		Options: opts,
	}
}

func (s *Strategy) fetch(ctx context.Context, p Params, search string, link deeplink.Context, offset, limit int, opts querycache.Options) (VariantList, error) {
	priority, unresolved := s.finder.PriorityVariants(link)
	if len(unresolved) > 0 {
		s.log.Debug("deep-linked revisions not in cache",
			zap.String("app_id", p.AppID),
			zap.Strings("revision_ids", unresolved))
	}
	cached, missing := s.finder.Partition(priority)

	var (
		fetched []api.Variant
		regular api.VariantPage
		envs    []api.Environment
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(missing) > 0 {
		g.Go(func() error {
			vs, err := api.FetchVariants(gctx, s.api, missing)
			if err != nil {
				return fmt.Errorf("fetch priority variants: %w", err)
			}
			fetched = vs
			return nil
		})
	}
	g.Go(func() error {
		page, err := s.api.ListAppVariants(gctx, p.AppID, api.ListQuery{Search: search, Offset: offset, Limit: limit})
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		regular = page
		return nil
	})
	if p.Mode == ModeEnhanced {
		g.Go(func() error {
			out, err := s.api.ListEnvironments(gctx, p.AppID)
			if err != nil {
				return fmt.Errorf("list environments: %w", err)
			}
			envs = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("variant list fetch failed",
			zap.String("app_id", p.AppID),
			zap.String("mode", string(p.Mode)),
			zap.Int("offset", offset),
			zap.Error(err))
		return VariantList{}, err
	}

	for _, v := range fetched {
		s.cache.Set(VariantKey(v.ID), v, opts.GCTime)
	}
	if p.Mode == ModeEnhanced {
		s.cache.Set(EnvironmentsKey(p.AppID), envs, opts.GCTime)
	}

	list := Merge(cached, fetched, regular, priority)
	if p.Mode == ModeEnhanced {
		list.Variants = JoinDeployments(list.Variants, envs)
	}
	s.log.Debug("variant list fetched",
		zap.String("app_id", p.AppID),
		zap.String("mode", string(p.Mode)),
		zap.Int("offset", offset),
		zap.Int("priority_cached", len(cached)),
		zap.Int("priority_fetched", len(fetched)),
		zap.Int("regular", len(regular.Variants)),
		zap.Int("total", list.Total))
	return list, nil
}

// report feeds the fetch outcome back into the window, but only while the
// window still points at the fetched page.
func (s *Strategy) report(windowKey string, offset, limit int, list VariantList, err error) {
	cur := s.windows.Get(windowKey)
	if cur.Offset != offset || cur.Limit != limit {
		return
	}
	if err != nil {
		s.windows.Apply(windowKey, window.SetLoading{IsLoading: false})
		return
	}
	s.windows.Apply(windowKey, window.SetTotal{Total: list.Total - list.PriorityCount, HasMore: list.HasMore})
}

// Merge orders a list as cached priority items, fetched priority items, then
// the regular page with any priority id removed. Total counts the regular
// total plus every priority id; HasMore comes from the regular page alone.
func Merge(cached, fetched []api.Variant, regular api.VariantPage, priority []string) VariantList {
	exclude := make(map[string]struct{}, len(priority))
	for _, id := range priority {
		exclude[id] = struct{}{}
	}
	out := make([]api.Variant, 0, len(cached)+len(fetched)+len(regular.Variants))
	out = append(out, cached...)
	out = append(out, fetched...)
	for _, v := range regular.Variants {
		if _, skip := exclude[v.ID]; skip {
			continue
		}
		out = append(out, v)
	}
	return VariantList{
		Variants:      out,
		Total:         regular.Total + len(priority),
		HasMore:       regular.HasMore,
		PriorityCount: len(cached) + len(fetched),
	}
}
