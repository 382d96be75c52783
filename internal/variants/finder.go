package variants

import (
	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/querycache"
)

// Finder looks for entities already held by the cache. It never fetches.
type Finder struct {
	cache *querycache.Cache
}

// NewFinder returns a finder over cache.
func NewFinder(cache *querycache.Cache) *Finder {
	return &Finder{cache: cache}
}

// FindVariant searches every variant list in key order, then the individual
// entry for id. Stale entries are skipped so invalidated data is refetched.
func (f *Finder) FindVariant(id string) (api.Variant, bool) {
	if id == "" {
		return api.Variant{}, false
	}
	for _, e := range f.cache.Scan(querycache.NewKey(KeyVariants)) {
		list, ok := usable[VariantList](e)
		if !ok {
			continue
		}
		for _, v := range list.Variants {
			if v.ID == id {
				return v, true
			}
		}
	}
	if e, ok := f.cache.Peek(VariantKey(id)); ok {
		if v, ok := usable[api.Variant](e); ok {
			return v, true
		}
	}
	return api.Variant{}, false
}

// FindRevision searches every revision history, then the individual
// revision entries.
func (f *Finder) FindRevision(id string) (api.Revision, bool) {
	if id == "" {
		return api.Revision{}, false
	}
	for _, e := range f.cache.Scan(querycache.NewKey(KeyRevisions)) {
		revs, ok := usable[[]api.Revision](e)
		if !ok {
			continue
		}
		for _, r := range revs {
			if r.ID == id {
				return r, true
			}
		}
	}
	for _, e := range f.cache.Scan(querycache.NewKey(KeyRevision)) {
		if r, ok := usable[api.Revision](e); ok && r.ID == id {
			return r, true
		}
	}
	return api.Revision{}, false
}

// Partition splits ids into variants the cache already holds and ids that
// must be fetched. Both keep the order of ids.
func (f *Finder) Partition(ids []string) (cached []api.Variant, missing []string) {
	for _, id := range ids {
		if v, ok := f.FindVariant(id); ok {
			cached = append(cached, v)
			continue
		}
		missing = append(missing, id)
	}
	return cached, missing
}

// PriorityVariants maps a deep link onto the variants it asks to show
// first. A revision id stands for the variant that owns it: a cached
// revision names its owner, and an id of the form "<variant>@<n>" names it
// directly. Revision ids resolved neither way are returned as unresolved.
func (f *Finder) PriorityVariants(link deeplink.Context) (ids, unresolved []string) {
	seen := make(map[string]struct{}, len(link.PriorityIDs))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, rid := range link.RevisionIDs {
		if r, ok := f.FindRevision(rid); ok {
			add(r.VariantID)
			continue
		}
		if variantID, _, ok := api.ParseRevisionID(rid); ok {
			add(variantID)
			continue
		}
		unresolved = append(unresolved, rid)
	}
	for _, id := range link.VariantIDs {
		add(id)
	}
	add(link.SelectedVariant)
	return ids, unresolved
}

// CacheStats summarises the cache for diagnostics.
type CacheStats struct {
	Entries    int
	Lists      int
	Individual int
	Stale      int
	Fetching   int
	Hits       int64
	Misses     int64
}

// CacheStats reports entry counts by kind.
func (f *Finder) CacheStats() CacheStats {
	s := f.cache.Stats()
	out := CacheStats{
		Entries:  s.Entries,
		Stale:    s.Stale,
		Fetching: s.Fetching,
		Hits:     s.Hits,
		Misses:   s.Misses,
	}
	for _, e := range f.cache.Scan(nil) {
		if len(e.Key) == 0 {
			continue
		}
		switch e.Key[0] {
		case KeyVariants, KeyRevisions, KeyEnvironments:
			out.Lists++
		case KeyVariant, KeyRevision:
			out.Individual++
		}
	}
	return out
}

func usable[T any](e querycache.Entry) (T, bool) {
	var zero T
	if e.Stale || e.Status != querycache.StatusSuccess {
		return zero, false
	}
	v, ok := e.Data.(T)
	return v, ok
}
