package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposed on /metrics.
var (
	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheme_sync_records_total",
			Help: "Records processed by the reconciliation job, by entity and outcome.",
		},
		[]string{"entity", "outcome"},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheme_sync_runs_total",
			Help: "Reconciliation runs by entity and final status.",
		},
		[]string{"entity", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheme_sync_duration_seconds",
			Help:    "Wall time of one reconciliation run.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"entity"},
	)

	SchemeTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheme_lifecycle_actions_total",
			Help: "Scheme history entries appended, by action.",
		},
		[]string{"action"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
