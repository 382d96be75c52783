// Package state records the health of the background refresher.
//
// # Overview
//
// The refresher in package app re-ensures the active variant queries on an
// interval. Each pass ends with a Store.Update carrying the cache counts and
// the outcome of the list query. The UI header reads a Snapshot to show when
// data was last refreshed and whether the API looks unreachable:
//
//	Producer (refresher):            Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ Session.Sync(...)    │        │                  │
//	│ Cache.Collect()      │        │                  │
//	│ store.Update(...)    │───────→│ store.Snapshot() │
//	└──────────────────────┘ (lock) └──────────────────┘
//
// Fetched variants never live here. The query cache owns them.
//
// # Update Semantics
//
// A successful refresh replaces the cache counts, stamps LastSuccess and
// resets the failure streak. A failed refresh keeps the previous counts and
// increments ConsecutiveFailures. IsOffline reports two or more failures in
// a row, which the UI renders as an offline badge.
//
// Snapshot returns a copy; the stored error is wrapped so callers cannot
// hold the store's instance.
package state
