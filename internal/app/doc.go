// Package app is the composition root of varlens.
//
// # Overview
//
// Open turns configuration into a Runtime: the API client, the shared query
// cache, the window store and the variant Session that sits on top of them.
// Run starts the live pieces around that runtime and hands the terminal to
// the UI:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> Open()
//	       │         ├─> config.Load + overrides + Validate
//	       │         ├─> prefs.Load (theme, page size)
//	       │         ├─> newLogger (zap, file only)
//	       │         ├─> api.NewClient
//	       │         ├─> querycache.New (Prometheus registry)
//	       │         └─> variants.NewSession
//	       ├─────> serveMetrics()      optional /metrics endpoint
//	       ├─────> Session.Start()     initial fetches + observer
//	       ├─────> Refresher.Start()   interval refetch
//	       └─────> ui.Run()            Bubble Tea program (blocks)
//
// One-shot commands in cmd/varlens call Open and use the Session's blocking
// Load methods instead of Run.
//
// # Refresh Behavior
//
// The Refresher wakes every poll_interval (default 30 seconds). Each pass
// records the outcome of the last list fetch in a state.Store, re-ensures
// the session's queries with the interval trigger, and collects cache
// entries past their GC time. Consecutive failures double the wait, capped
// at five minutes, so an unreachable platform is not hammered.
//
// # Error Handling
//
// Fatal errors (returned from Open or Run):
//   - unreadable or malformed config file
//   - missing project_id or app_id
//   - unknown list mode or malformed deep link
//   - metrics address that cannot be bound
//
// Recoverable errors (logged, refresh continues):
//   - failed list or environment fetches
//   - request timeouts
//
// # Logging
//
// The UI owns the terminal, so the zap logger only writes to log_file at
// log_level. Without log_file every log call is a no-op. `varlens logs`
// prints the tail of that file through the logtail package.
package app
