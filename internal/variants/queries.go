package variants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/querycache"
)

// Freshness of queries that are not tied to a deep link.
const (
	DefaultStaleTime = 5 * time.Minute
	DefaultGCTime    = 10 * time.Minute
	// PriorityStaleTime applies to list queries carrying deep-linked ids.
	PriorityStaleTime = 30 * time.Second

	defaultRevisionPageSize = 100
)

// DefaultOptions is the freshness policy of ordinary queries.
func DefaultOptions(enabled bool) querycache.Options {
	return querycache.Options{
		StaleTime:      DefaultStaleTime,
		GCTime:         DefaultGCTime,
		RefetchOnMount: true,
		Enabled:        enabled,
	}
}

// Queries builds the descriptors for single entities, revision histories and
// environments. They are the only place besides Strategy that reaches the
// network.
type Queries struct {
	api              api.Fetcher
	cache            *querycache.Cache
	revisionPageSize int
}

// NewQueries returns descriptor builders backed by fetcher. Successful
// single-revision fetches are also cached by revision id.
func NewQueries(fetcher api.Fetcher, cache *querycache.Cache, revisionPageSize int) *Queries {
	if revisionPageSize <= 0 {
		revisionPageSize = defaultRevisionPageSize
	}
	return &Queries{api: fetcher, cache: cache, revisionPageSize: revisionPageSize}
}

// Variant fetches one variant.
func (q *Queries) Variant(id string) querycache.Query {
	id = strings.TrimSpace(id)
	return querycache.Query{
		Key: VariantKey(id),
		Fetch: func(ctx context.Context) (any, error) {
			v, err := q.api.FetchVariant(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("fetch variant %s: %w", id, err)
			}
			return v, nil
		},
		Options: DefaultOptions(id != ""),
	}
}

// Revisions fetches a variant's whole revision history, following pages
// until the server reports no more.
func (q *Queries) Revisions(variantID string) querycache.Query {
	variantID = strings.TrimSpace(variantID)
	return querycache.Query{
		Key: RevisionsKey(variantID),
		Fetch: func(ctx context.Context) (any, error) {
			revs, err := api.FetchAllRevisions(ctx, q.api, variantID, q.revisionPageSize)
			if err != nil {
				return nil, fmt.Errorf("fetch revisions of %s: %w", variantID, err)
			}
			return revs, nil
		},
		Options: DefaultOptions(variantID != ""),
	}
}

// Revision fetches one revision by number.
func (q *Queries) Revision(variantID string, revision int) querycache.Query {
	variantID = strings.TrimSpace(variantID)
	opts := DefaultOptions(variantID != "" && revision > 0)
	return querycache.Query{
		Key: RevisionNumberKey(variantID, revision),
		Fetch: func(ctx context.Context) (any, error) {
			r, err := q.api.FetchRevision(ctx, variantID, revision)
			if err != nil {
				return nil, fmt.Errorf("fetch revision %s@%d: %w", variantID, revision, err)
			}
			if q.cache != nil && r.ID != "" {
				q.cache.Set(RevisionKey(r.ID), r, opts.GCTime)
			}
			return r, nil
		},
		Options: opts,
	}
}

// Environments fetches an app's deployment environments.
func (q *Queries) Environments(appID string) querycache.Query {
	appID = strings.TrimSpace(appID)
	return querycache.Query{
		Key: EnvironmentsKey(appID),
		Fetch: func(ctx context.Context) (any, error) {
			envs, err := q.api.ListEnvironments(ctx, appID)
			if err != nil {
				return nil, fmt.Errorf("fetch environments of %s: %w", appID, err)
			}
			return envs, nil
		},
		Options: DefaultOptions(appID != ""),
	}
}
