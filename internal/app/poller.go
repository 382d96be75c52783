package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/state"
	"github.com/five82/varlens/internal/variants"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Refresher re-ensures the session's queries on an interval so stale lists
// refetch without user input, and records the outcome in a state.Store.
type Refresher struct {
	session  *variants.Session
	cache    *querycache.Cache
	store    *state.Store
	interval time.Duration
	log      *zap.Logger
}

// NewRefresher returns a Refresher. A non-positive interval uses the default.
func NewRefresher(session *variants.Session, cache *querycache.Cache, store *state.Store, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{session: session, cache: cache, store: store, interval: interval, log: logger}
}

// Start launches the refresh loop. The returned channel closes once the loop
// has exited after ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(r.interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			_ = r.Refresh()
			timer.Reset(calculateBackoff(r.store.Failures(), r.interval))
		}
	}()
	return done
}

// Refresh runs one pass. It reports the outcome of the list fetch the
// previous pass started, then ensures the queries again and drops expired
// cache entries.
func (r *Refresher) Refresh() error {
	var err error
	if res := r.session.Loaded(); res.State == querycache.StateFailed {
		err = res.Err
	}

	r.session.Sync(querycache.TriggerInterval)
	collected := r.cache.Collect()
	stats := r.session.Finder().CacheStats()
	r.store.Update(&stats, collected, err)

	if err != nil {
		r.log.Warn("variant refresh failed",
			zap.Error(err),
			zap.Int("consecutive_failures", r.store.Failures()),
		)
		return err
	}
	r.log.Debug("variant refresh",
		zap.Int("entries", stats.Entries),
		zap.Int("stale", stats.Stale),
		zap.Int("collected", collected),
	)
	return nil
}
