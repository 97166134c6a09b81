package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "scooper"

var (
	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Dashboard refreshes, by outcome.",
	}, []string{"outcome"})

	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Time to build one dashboard snapshot.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	FeedFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_failures_total",
		Help:      "Source feeds that could not be fetched, parsed or adapted.",
	}, []string{"key", "stage"})

	RowsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_dropped_total",
		Help:      "Feed rows filtered out, by feed and reason.",
	}, []string{"feed", "reason"})

	LookupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_failures_total",
		Help:      "Tracked products whose brand had no count row.",
	})

	CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_cache_requests_total",
		Help:      "Snapshot cache lookups, by result.",
	}, []string{"result"})
)

// NewRegistry returns a registry holding every collector above plus the Go
// runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		PipelineRuns,
		PipelineDuration,
		FeedFailures,
		RowsDropped,
		LookupFailures,
		CacheRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
