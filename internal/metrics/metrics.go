// Package metrics holds the Prometheus collectors for the feed pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles every metric the pipeline reports. Components receive it
// explicitly instead of touching a package-level registry.
type Collectors struct {
	FetchCycles          *prometheus.CounterVec
	FetchDuration        prometheus.Histogram
	EventsNormalized     prometheus.Counter
	DuplicatesDropped    prometheus.Counter
	StaleCyclesDiscarded prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		FetchCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pulaze",
			Subsystem: "feed",
			Name:      "fetch_cycles_total",
			Help:      "Number of fetch cycles by result",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pulaze",
			Subsystem: "feed",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching and processing one cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		EventsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulaze",
			Subsystem: "feed",
			Name:      "events_normalized_total",
			Help:      "Number of raw records normalized",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulaze",
			Subsystem: "feed",
			Name:      "duplicates_dropped_total",
			Help:      "Number of records dropped by deduplication",
		}),
		StaleCyclesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulaze",
			Subsystem: "feed",
			Name:      "stale_cycles_discarded_total",
			Help:      "Number of superseded fetch cycles whose results were discarded",
		}),
	}

	reg.MustRegister(
		c.FetchCycles,
		c.FetchDuration,
		c.EventsNormalized,
		c.DuplicatesDropped,
		c.StaleCyclesDiscarded,
	)

	return c
}
