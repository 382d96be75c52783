package variants

import (
	"go.uber.org/zap"

	"github.com/five82/varlens/internal/querycache"
)

// Scope selects which cache entries an invalidation reaches.
type Scope int

const (
	// ScopeApp covers every list query of an app plus its environments.
	ScopeApp Scope = iota
	// ScopeEntity covers one variant and every variant list.
	ScopeEntity
	// ScopeRelation covers one revision, its parent's history and entry,
	// and every variant list.
	ScopeRelation
)

func (s Scope) String() string {
	switch s {
	case ScopeEntity:
		return "entity"
	case ScopeRelation:
		return "relation"
	default:
		return "app"
	}
}

// Target describes what changed. ID is the app id for ScopeApp, the variant
// id for ScopeEntity, and the revision id for ScopeRelation, where ParentID
// is the owning variant.
type Target struct {
	Scope    Scope
	ID       string
	ParentID string
}

// Invalidator marks cache entries stale after mutations and warms entries
// that are about to be needed.
type Invalidator struct {
	cache   *querycache.Cache
	finder  *Finder
	queries *Queries
	log     *zap.Logger
}

// NewInvalidator wires an invalidator.
func NewInvalidator(cache *querycache.Cache, finder *Finder, queries *Queries, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{cache: cache, finder: finder, queries: queries, log: logger}
}

// Invalidate marks the entries t reaches as stale and returns how many
// matched. Calling it twice leaves the cache as calling it once.
func (iv *Invalidator) Invalidate(t Target) int {
	var prefixes []querycache.Key
	switch t.Scope {
	case ScopeApp:
		if t.ID == "" {
			return 0
		}
		prefixes = []querycache.Key{
			querycache.NewKey(KeyVariants, t.ID),
			EnvironmentsKey(t.ID),
		}
	case ScopeEntity:
		if t.ID == "" {
			return 0
		}
		prefixes = []querycache.Key{
			VariantKey(t.ID),
			querycache.NewKey(KeyVariants),
		}
	case ScopeRelation:
		if t.ID == "" {
			return 0
		}
		prefixes = []querycache.Key{
			RevisionKey(t.ID),
			querycache.NewKey(KeyVariants),
		}
		if t.ParentID != "" {
			prefixes = append(prefixes,
				RevisionsKey(t.ParentID),
				VariantKey(t.ParentID),
				querycache.NewKey(KeyRevision, t.ParentID),
			)
		}
	}

	n := iv.cache.Invalidate(func(k querycache.Key) bool {
		for _, p := range prefixes {
			if k.HasPrefix(p) {
				return true
			}
		}
		return false
	})
	iv.log.Debug("cache invalidated",
		zap.Stringer("scope", t.Scope),
		zap.String("id", t.ID),
		zap.String("parent_id", t.ParentID),
		zap.Int("entries", n))
	return n
}

// InvalidateAll marks every entry stale.
func (iv *Invalidator) InvalidateAll() int {
	return iv.cache.Invalidate(func(querycache.Key) bool { return true })
}

// Preload starts background fetches for the variants the cache does not
// already hold. It returns the ids it started fetching and never blocks.
func (iv *Invalidator) Preload(ids ...string) []string {
	var started []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := iv.finder.FindVariant(id); ok {
			continue
		}
		if e, ok := iv.cache.Ensure(iv.queries.Variant(id), querycache.TriggerRead); ok && e.Fetching {
			started = append(started, id)
		}
	}
	if len(started) > 0 {
		iv.log.Debug("preloading variants", zap.Strings("ids", started))
	}
	return started
}
