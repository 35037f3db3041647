// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package metrics exposes Prometheus instrumentation for Bookloft.
// All collectors are registered on the default registry via promauto;
// the /metrics endpoint serves them with promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by route, method and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookloft",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookloft",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// RecommendationsTotal counts recommendation requests by outcome.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookloft",
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Recommendation requests by outcome.",
		},
		[]string{"outcome"},
	)

	// BranchFailuresTotal counts per-branch failures by branch and reason.
	BranchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookloft",
			Subsystem: "recommend",
			Name:      "branch_failures_total",
			Help:      "Recommendation branch failures.",
		},
		[]string{"branch", "reason"},
	)

	// RecommendDuration observes end-to-end engine latency.
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookloft",
			Subsystem: "recommend",
			Name:      "duration_seconds",
			Help:      "Recommendation engine latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// SnapshotBuildsTotal counts snapshot fitting runs by result.
	SnapshotBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookloft",
			Subsystem: "snapshot",
			Name:      "builds_total",
			Help:      "Neighbor snapshot fitting runs.",
		},
		[]string{"result"},
	)

	// SnapshotUsers gauges the user count of the installed snapshot.
	SnapshotUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bookloft",
			Subsystem: "snapshot",
			Name:      "users",
			Help:      "Users covered by the installed snapshot.",
		},
	)

	// IngestRowsTotal counts rows loaded during ingest by source and table.
	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookloft",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Rows ingested per source dataset and table.",
		},
		[]string{"source", "table"},
	)

	// EnrichLookupsTotal counts metadata enrichment lookups by result.
	EnrichLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookloft",
			Subsystem: "enrich",
			Name:      "lookups_total",
			Help:      "Metadata enrichment lookups by result.",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(route, method, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRecommendation records one engine run.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordBranchFailure records a per-branch failure.
func RecordBranchFailure(branch, reason string) {
	BranchFailuresTotal.WithLabelValues(branch, reason).Inc()
}

// RecordSnapshotBuild records a fitting run and, on success, the coverage.
func RecordSnapshotBuild(result string, users int) {
	SnapshotBuildsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		SnapshotUsers.Set(float64(users))
	}
}

// RecordIngestRows adds to the per-source row counter.
func RecordIngestRows(source, table string, n int) {
	IngestRowsTotal.WithLabelValues(source, table).Add(float64(n))
}

// RecordEnrichLookup records one enrichment lookup.
func RecordEnrichLookup(result string) {
	EnrichLookupsTotal.WithLabelValues(result).Inc()
}
