// Package querycache is the shared, explicitly owned store of fetched data.
//
// # Overview
//
// Every network read in varlens goes through a Cache. A Query names its
// entry with a hierarchical Key, carries the function that performs the
// I/O, and sets the freshness Options for the entry. The cache decides
// whether a read can be served from memory, deduplicates concurrent
// requests for the same key, and records the outcome as an Entry:
//
//	Query{Key, Fetch, Options}
//	        │
//	        ▼
//	┌──────────────────┐   fresh    ┌─────────────┐
//	│ Cache.Fetch      │──────────→ │ cached Data │
//	│ Cache.Ensure     │            └─────────────┘
//	└──────────────────┘
//	        │ missing / stale / invalidated
//	        ▼
//	singleflight.Group ──→ Fetch(ctx) ──→ Entry{Status, Data, Err}
//	                                            │
//	                                            ▼
//	                                   Changes() notifies
//
// # Entries
//
// An Entry moves through idle, loading, success and error. Two flags are
// layered on top:
//
//   - Stale: set by Invalidate. The next read of any kind refetches.
//   - Fetching: set while a request is in flight. Data from the previous
//     success stays readable, so views can keep showing rows while a
//     refresh runs.
//
// A failed refetch keeps the previous Data but sets Status to error.
// ResultOf projects an entry into a Result and lets the error win, so
// consumers never render stale rows as if they were current.
//
// # Triggers
//
// Ensure never blocks. It starts a background fetch when the trigger asks
// for one:
//
//	TriggerRead      missing, invalidated, or never fetched
//	TriggerMount     + time-stale when RefetchOnMount
//	TriggerFocus     + time-stale when RefetchOnFocus
//	TriggerInterval  any time-stale or failed entry
//
// Failed entries are not retried on plain reads, which keeps a broken
// endpoint from being hammered by every render.
//
// # Invalidation
//
// Invalidate and InvalidatePrefix mark matching entries stale. Marking is
// idempotent. Each entry also carries a generation counter; a fetch that
// started before an invalidation stores its result but leaves the entry
// stale, so the next read picks up the post-mutation data.
//
// # Change Notification
//
// Changes returns a reactive node bumped after every write. Derived nodes
// in the variants package declare it as a dependency and recompute lazily.
// Notifications are sent after the cache mutex is released, so subscribers
// may read the cache from inside their callbacks.
//
// # Lifetime
//
// The cache is constructed once per session and passed to whatever needs
// it. Collect drops entries that have not been read for longer than their
// GC time. Close cancels background fetches, waits for them, and empties
// the cache.
//
// # Metrics
//
// Hits, misses, fetch outcomes, invalidations and the entry count are
// reported through Prometheus collectors. Pass a registry to NewMetrics to
// expose them; the zero configuration uses unregistered collectors.
package querycache
