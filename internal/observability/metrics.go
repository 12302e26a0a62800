// Package observability exposes Prometheus metrics for the ingest path.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestRequests counts ingest requests by final outcome (the HTTP
	// status class returned to the agent).
	IngestRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchme_ingest_requests_total",
		Help: "Total ingest requests by outcome",
	}, []string{"outcome"})

	// IngestEntries counts payload entries by how they were handled.
	IngestEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchme_ingest_entries_total",
		Help: "Total ingest payload entries processed or skipped",
	}, []string{"result"})

	// RateLimited counts requests denied by the fixed-window limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchme_ingest_rate_limited_total",
		Help: "Total ingest requests denied by the rate limiter",
	})

	// TxConflicts counts upsert transactions that hit write contention.
	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchme_ingest_tx_conflicts_total",
		Help: "Total ingest transactions retried or failed due to write conflicts",
	})

	// IngestDuration tracks end-to-end ingest handling time for accepted
	// payloads.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patchme_ingest_duration_seconds",
		Help:    "Duration of successful ingest requests",
		Buckets: prometheus.DefBuckets,
	})
)
