package api

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// maxBatchConcurrency bounds parallel single-variant requests in FetchVariants.
const maxBatchConcurrency = 8

// FetchVariants retrieves each id individually and returns the variants in
// the order of ids. The first failure cancels the remaining requests.
func FetchVariants(ctx context.Context, f Fetcher, ids []string) ([]Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]Variant, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			v, err := f.FetchVariant(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch variant %s: %w", id, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAllRevisions follows the revision list pages until the server reports
// no more.
func FetchAllRevisions(ctx context.Context, f Fetcher, variantID string, pageSize int) ([]Revision, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	var all []Revision
	offset := 0
	for {
		page, err := f.ListVariantRevisions(ctx, variantID, PageQuery{Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Revisions...)
		if !page.HasMore || len(page.Revisions) == 0 {
			return all, nil
		}
		offset += len(page.Revisions)
	}
}
