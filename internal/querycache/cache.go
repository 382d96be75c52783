package querycache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/five82/varlens/internal/reactive"
)

// Status is the fetch status of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Entry is a cached query result plus its metadata.
type Entry struct {
	Key       Key
	Data      any
	Status    Status
	Err       error
	FetchedAt time.Time
	// Stale is set by invalidation; the next read refetches.
	Stale bool
	// Fetching is set while a request for the key is in flight.
	Fetching bool
}

// Options controls freshness and refetch behaviour of a query.
type Options struct {
	StaleTime      time.Duration
	GCTime         time.Duration
	RefetchOnMount bool
	RefetchOnFocus bool
	Enabled        bool
}

// FetchFunc performs the network I/O for a query.
type FetchFunc func(ctx context.Context) (any, error)

// Query is a declarative fetch: where the result lives, how to get it, and
// how long it stays fresh.
type Query struct {
	Key   Key
	Fetch FetchFunc
	Options
}

// Trigger says why a query is being ensured.
type Trigger int

const (
	// TriggerRead fetches only missing or invalidated entries.
	TriggerRead Trigger = iota
	// TriggerMount also refetches time-stale entries when RefetchOnMount is set.
	TriggerMount
	// TriggerFocus also refetches time-stale entries when RefetchOnFocus is set.
	TriggerFocus
	// TriggerInterval refetches any time-stale or failed entry.
	TriggerInterval
)

var (
	// ErrDisabled is returned when fetching a query whose Enabled guard is false.
	ErrDisabled = errors.New("query disabled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("query cache closed")
)

const defaultFetchTimeout = 15 * time.Second

// Config configures a Cache.
type Config struct {
	// FetchTimeout bounds every network fetch the cache runs.
	FetchTimeout time.Duration
	Logger       *zap.Logger
	Metrics      *Metrics
	Now          func() time.Time
}

type record struct {
	entry      Entry
	gen        uint64
	gcTime     time.Duration
	lastAccess time.Time
}

// Cache is the single shared owner of fetched data. It is constructed
// explicitly, handed to every component that needs it, and closed at the end
// of a session.
type Cache struct {
	mu      sync.Mutex
	records map[string]*record
	closed  bool

	group   singleflight.Group
	version *reactive.Atom[uint64]

	log          *zap.Logger
	metrics      *Metrics
	now          func() time.Time
	fetchTimeout time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	bg       sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// New returns an empty cache.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		records:      make(map[string]*record),
		version:      reactive.NewAtom[uint64](0),
		log:          logger,
		metrics:      metrics,
		now:          now,
		fetchTimeout: timeout,
		bgCtx:        ctx,
		bgCancel:     cancel,
	}
}

// Changes is a node that changes whenever any entry is written. Derived
// nodes that read the cache declare it as a dependency.
func (c *Cache) Changes() reactive.Node {
	return c.version
}

// Version returns the current change counter.
func (c *Cache) Version() uint64 {
	return c.version.Get()
}

func (c *Cache) bump() {
	c.version.Update(func(v uint64) uint64 { return v + 1 })
}

// Peek returns the entry for key without fetching.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[key.id()]
	if !ok {
		return Entry{}, false
	}
	rec.lastAccess = c.now()
	return rec.entry, true
}

// Fetch returns fresh cached data for q or performs the fetch, blocking
// until it resolves. Concurrent fetches of one key share a single request.
func (c *Cache) Fetch(ctx context.Context, q Query) (any, error) {
	if !q.Enabled {
		return nil, ErrDisabled
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if rec, ok := c.records[q.Key.id()]; ok && c.fresh(rec, q.Options) {
		rec.lastAccess = c.now()
		data := rec.entry.Data
		c.mu.Unlock()
		c.hits.Add(1)
		c.metrics.Hits.Inc()
		return data, nil
	}
	c.bg.Add(1)
	c.mu.Unlock()
	c.misses.Add(1)
	c.metrics.Misses.Inc()
	return c.run(ctx, q)
}

// Ensure starts a background fetch for q when trigger calls for one and
// returns the entry as it stands. It never blocks on the network.
func (c *Cache) Ensure(q Query, trigger Trigger) (Entry, bool) {
	if !q.Enabled {
		return c.Peek(q.Key)
	}
	id := q.Key.id()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Entry{}, false
	}
	rec := c.records[id]
	need := c.needsFetch(rec, q.Options, trigger)
	if need {
		if rec == nil {
			rec = &record{entry: Entry{Key: q.Key, Status: StatusLoading}}
			c.records[id] = rec
			c.metrics.Entries.Set(float64(len(c.records)))
		}
		rec.entry.Fetching = true
		rec.gcTime = q.GCTime
		c.bg.Add(1)
	}
	var entry Entry
	if rec != nil {
		rec.lastAccess = c.now()
		entry = rec.entry
	}
	c.mu.Unlock()

	if !need {
		if rec != nil {
			c.hits.Add(1)
			c.metrics.Hits.Inc()
		}
		return entry, rec != nil
	}
	c.misses.Add(1)
	c.metrics.Misses.Inc()
	c.bump()
	go func() {
		_, _ = c.run(context.Background(), q)
	}()
	return entry, true
}

func (c *Cache) fresh(rec *record, opts Options) bool {
	e := rec.entry
	return e.Status == StatusSuccess && !e.Stale && c.now().Sub(e.FetchedAt) < opts.StaleTime
}

func (c *Cache) needsFetch(rec *record, opts Options, trigger Trigger) bool {
	if rec == nil {
		return true
	}
	e := rec.entry
	if e.Fetching {
		return false
	}
	if e.Stale || e.Status == StatusIdle || e.Status == StatusLoading {
		return true
	}
	if e.Status == StatusError {
		switch trigger {
		case TriggerMount:
			return opts.RefetchOnMount
		case TriggerFocus:
			return opts.RefetchOnFocus
		case TriggerInterval:
			return true
		default:
			return false
		}
	}
	timeStale := c.now().Sub(e.FetchedAt) >= opts.StaleTime
	switch trigger {
	case TriggerMount:
		return timeStale && opts.RefetchOnMount
	case TriggerFocus:
		return timeStale && opts.RefetchOnFocus
	case TriggerInterval:
		return timeStale
	default:
		return false
	}
}

// run shares one fetch per key among all callers. The fetch runs on the
// cache's own context so a caller that gives up does not fail the others.
// The caller must have added to c.bg; run marks it done once the shared
// fetch has finished, even when ctx ends first.
func (c *Cache) run(ctx context.Context, q Query) (any, error) {
	ch := c.group.DoChan(q.Key.id(), func() (any, error) {
		fctx, cancel := context.WithTimeout(c.bgCtx, c.fetchTimeout)
		defer cancel()
		return c.execute(fctx, q)
	})
	select {
	case res := <-ch:
		c.bg.Done()
		return res.Val, res.Err
	case <-ctx.Done():
		go func() {
			<-ch
			c.bg.Done()
		}()
		return nil, ctx.Err()
	}
}

func (c *Cache) execute(ctx context.Context, q Query) (any, error) {
	id := q.Key.id()
	c.mu.Lock()
	rec := c.records[id]
	if rec == nil {
		rec = &record{entry: Entry{Key: q.Key, Status: StatusLoading}}
		c.records[id] = rec
		c.metrics.Entries.Set(float64(len(c.records)))
	}
	rec.entry.Fetching = true
	rec.gcTime = q.GCTime
	rec.lastAccess = c.now()
	gen := rec.gen
	c.mu.Unlock()
	c.bump()

	start := c.now()
	c.log.Debug("query fetch started", zap.String("key", q.Key.String()))
	data, err := q.Fetch(ctx)

	c.mu.Lock()
	// Clear or Remove may have dropped the record while we were fetching;
	// the result is discarded in that case.
	if rec, ok := c.records[id]; ok {
		rec.entry.Fetching = false
		if err != nil {
			rec.entry.Status = StatusError
			rec.entry.Err = err
		} else {
			rec.entry.Data = data
			rec.entry.Status = StatusSuccess
			rec.entry.Err = nil
			rec.entry.FetchedAt = c.now()
			rec.entry.Stale = rec.gen != gen
		}
	}
	c.mu.Unlock()
	c.bump()

	elapsed := c.now().Sub(start)
	if err != nil {
		c.metrics.Fetches.WithLabelValues("error").Inc()
		c.log.Warn("query fetch failed",
			zap.String("key", q.Key.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, err
	}
	c.metrics.Fetches.WithLabelValues("success").Inc()
	c.log.Debug("query fetch finished",
		zap.String("key", q.Key.String()),
		zap.Duration("elapsed", elapsed))
	return data, nil
}

// Set stores data for key as a fresh success entry.
func (c *Cache) Set(key Key, data any, gcTime time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	id := key.id()
	rec := c.records[id]
	if rec == nil {
		rec = &record{}
		c.records[id] = rec
		c.metrics.Entries.Set(float64(len(c.records)))
	}
	fetching := rec.entry.Fetching
	rec.entry = Entry{Key: key, Data: data, Status: StatusSuccess, FetchedAt: c.now(), Fetching: fetching}
	rec.gcTime = gcTime
	rec.lastAccess = c.now()
	c.mu.Unlock()
	c.bump()
}

// Invalidate marks every entry whose key satisfies match as stale and
// returns how many matched. Invalidating an already-stale entry leaves it
// stale, so repeated calls are idempotent.
func (c *Cache) Invalidate(match func(Key) bool) int {
	c.mu.Lock()
	n := 0
	for _, rec := range c.records {
		if !match(rec.entry.Key) {
			continue
		}
		rec.entry.Stale = true
		rec.gen++
		n++
	}
	c.mu.Unlock()
	if n == 0 {
		return 0
	}
	c.metrics.Invalidations.Add(float64(n))
	c.log.Debug("query cache invalidated", zap.Int("entries", n))
	c.bump()
	return n
}

// InvalidatePrefix invalidates every entry under prefix.
func (c *Cache) InvalidatePrefix(prefix Key) int {
	return c.Invalidate(func(k Key) bool { return k.HasPrefix(prefix) })
}

// Scan returns the entries under prefix in key order.
func (c *Cache) Scan(prefix Key) []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.records))
	for _, rec := range c.records {
		if rec.entry.Key.HasPrefix(prefix) {
			out = append(out, rec.entry)
		}
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.id() < out[j].Key.id()
	})
	return out
}

// Remove drops key.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	_, ok := c.records[key.id()]
	delete(c.records, key.id())
	c.metrics.Entries.Set(float64(len(c.records)))
	c.mu.Unlock()
	if ok {
		c.bump()
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]*record)
	c.metrics.Entries.Set(0)
	c.mu.Unlock()
	c.bump()
}

// Collect removes entries nobody has read for longer than their GC time
// and returns how many were dropped.
func (c *Cache) Collect() int {
	now := c.now()
	c.mu.Lock()
	n := 0
	for id, rec := range c.records {
		if rec.entry.Fetching || rec.gcTime <= 0 {
			continue
		}
		if now.Sub(rec.lastAccess) > rec.gcTime {
			delete(c.records, id)
			n++
		}
	}
	c.metrics.Entries.Set(float64(len(c.records)))
	c.mu.Unlock()
	if n > 0 {
		c.log.Debug("query cache collected", zap.Int("entries", n))
		c.bump()
	}
	return n
}

// Stats is a diagnostic summary of the cache.
type Stats struct {
	Entries  int
	Success  int
	Errors   int
	Stale    int
	Fetching int
	Hits     int64
	Misses   int64
}

// Stats reports entry counts by state plus hit/miss totals.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Entries: len(c.records), Hits: c.hits.Load(), Misses: c.misses.Load()}
	for _, rec := range c.records {
		switch rec.entry.Status {
		case StatusSuccess:
			s.Success++
		case StatusError:
			s.Errors++
		}
		if rec.entry.Stale {
			s.Stale++
		}
		if rec.entry.Fetching {
			s.Fetching++
		}
	}
	return s
}

// Close cancels background fetches, waits for them to return, and empties
// the cache.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.bgCancel()
	c.bg.Wait()
	c.Clear()
}
