package querycache

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors a Cache reports to.
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Fetches       *prometheus.CounterVec
	Invalidations prometheus.Counter
	Entries       prometheus.Gauge
}

// NewMetrics builds the cache collectors and registers them with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "varlens",
			Subsystem: "query_cache",
			Name:      "hits_total",
			Help:      "Reads served from a fresh cache entry.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "varlens",
			Subsystem: "query_cache",
			Name:      "misses_total",
			Help:      "Reads that required a network fetch.",
		}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "varlens",
			Subsystem: "query_cache",
			Name:      "fetches_total",
			Help:      "Completed fetches by outcome.",
		}, []string{"outcome"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "varlens",
			Subsystem: "query_cache",
			Name:      "invalidations_total",
			Help:      "Entries marked stale.",
		}),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "varlens",
			Subsystem: "query_cache",
			Name:      "entries",
			Help:      "Entries currently held.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Fetches, m.Invalidations, m.Entries)
	}
	return m
}
