// Package variants is the query layer of the variant browser.
//
// # Overview
//
// A Session composes the pieces a paged, deep-link-aware variant list needs:
//
//	             ┌──────────────┐   ┌───────────────┐
//	 actions ──→ │ window.Store │   │ deeplink atom │ ←── SetURL
//	             └──────┬───────┘   └───────┬───────┘
//	                    │                   │
//	                    ▼                   ▼
//	              ┌────────────────────────────┐
//	              │ Strategy (key + fetch fn)  │ ←── Finder (cache lookups)
//	              └─────────────┬──────────────┘
//	                            ▼
//	                   querycache.Cache
//	                            │ Changes()
//	                            ▼
//	           loaded → rows / stats (reactive.Computed)
//
// The UI and CLI read Rows, Stats and Meta. Actions (LoadMore, Refresh,
// SelectVariant, ...) write window, selection, filter or link state and
// never look at responses. Start subscribes the session to its inputs so
// every change is followed by Sync, which ensures the queries the new state
// depends on.
//
// # Query Strategy
//
// A list query's key carries the app, mode, page, server search and the
// sorted priority ids, so every distinct combination is cached on its own.
// Its fetch function:
//
//  1. Splits priority ids into those the Finder already holds and the rest.
//  2. Fetches the missing priority variants one by one and the mode's
//     regular page concurrently under an errgroup.
//  3. Merges cached priority items, fetched priority items, then the
//     regular page with priority ids removed.
//
// Total is the regular total plus the number of priority ids; HasMore is
// the regular page's. Any failure fails the whole query. Queries with
// priority ids go stale after 30 seconds and refetch on mount and focus.
//
// # Modes
//
//   - list: the first page at the default page size.
//   - windowed: the page at the window's offset; resolved totals are fed
//     back into the window. Rows concatenate every page up to the current
//     one.
//   - enhanced: the unpaged list joined with environment deployments.
//
// # Invalidation
//
// Invalidate takes a Target whose Scope picks the reach:
//
//	app       every list of the app and its environments
//	entity    one variant and every variant list
//	relation  one revision, its parent's history and entry, every list
//
// Entries are marked stale, never removed, so invalidating twice is the
// same as invalidating once.
//
// # Rows
//
// Rows is a Result of Row values. A Row is either a real VariantRow or a
// skeleton placeholder. Placeholders appear only while the first page is
// loading or after the real rows while the next page is in flight.
package variants
