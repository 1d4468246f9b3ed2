package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// archive access pipeline.
type Metrics struct {
	DayFetches    *prometheus.CounterVec // labels: outcome={success,empty,error}
	FetchDuration prometheus.Histogram
	RecordsParsed prometheus.Histogram

	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
	InflightJoins prometheus.Counter

	RootProbes   *prometheus.CounterVec // labels: outcome={success,failure}
	RootResolved prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DayFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airsight",
			Name:      "day_fetches_total",
			Help:      "Day file fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airsight",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a day file fetch and parse.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airsight",
			Name:      "records_parsed",
			Help:      "Number of records parsed per loaded day.",
			Buckets:   []float64{0, 10, 100, 500, 1000, 2000, 5000, 10000},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airsight",
			Name:      "day_cache_lookups_total",
			Help:      "Day cache lookups by result.",
		}, []string{"result"}),
		InflightJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airsight",
			Name:      "inflight_joins_total",
			Help:      "Loads that attached to an already in-flight fetch for the same date.",
		}),
		RootProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airsight",
			Name:      "root_probes_total",
			Help:      "Storage root resolution attempts by outcome.",
		}, []string{"outcome"}),
		RootResolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "airsight",
			Name:      "root_resolved",
			Help:      "1 once a storage root has been confirmed, 0 before.",
		}),
	}

	prometheus.MustRegister(
		m.DayFetches,
		m.FetchDuration,
		m.RecordsParsed,
		m.CacheLookups,
		m.InflightJoins,
		m.RootProbes,
		m.RootResolved,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DayFetches:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "airsight", Name: "day_fetches_total"}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "airsight", Name: "fetch_duration_seconds"}),
		RecordsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "airsight", Name: "records_parsed"}),
		CacheLookups:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "airsight", Name: "day_cache_lookups_total"}, []string{"result"}),
		InflightJoins: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "airsight", Name: "inflight_joins_total"}),
		RootProbes:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "airsight", Name: "root_probes_total"}, []string{"outcome"}),
		RootResolved:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "airsight", Name: "root_resolved"}),
	}
}
