// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package metrics holds the Prometheus instruments for sync runs, the Trakt
// client and the control API. Everything registers with the default registry
// through promauto and is exposed on /metrics by the API server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync run metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_runs_total",
			Help: "Total number of sync runs by site and final state",
		},
		[]string{"site", "state"}, // state: completed, cancelled, failed
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"site"},
	)

	SyncRunActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelsync_run_active",
			Help: "1 while a sync run is in progress",
		},
	)

	// Batch uploader metrics
	SyncBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_batches_total",
			Help: "Total number of upload batches by outcome",
		},
		[]string{"intent", "category", "outcome"}, // outcome: transmitted, partially_rejected, failed
	)

	SyncBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_batch_duration_seconds",
			Help:    "Duration of one batch submission in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent", "category"},
	)

	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_records_total",
			Help: "Records processed by the filter pipeline and uploader",
		},
		[]string{"intent", "category", "result"}, // result: already_present, suppressed_watched, accepted, not_found, unsent
	)

	// Remote comparison set metrics
	RemoteFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_remote_fetch_total",
			Help: "Fetches of remote comparison sets",
		},
		[]string{"intent", "category", "result"}, // result: success, unavailable
	)

	RemoteFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_remote_fetch_duration_seconds",
			Help:    "Duration of remote comparison set fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent", "category"},
	)

	// Episode lookup metrics
	EpisodeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_episode_lookups_total",
			Help: "Episode identity lookups by result",
		},
		[]string{"result"}, // result: resolved, unresolved, error, cache_hit
	)

	// Trakt HTTP client metrics
	TraktRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_trakt_requests_total",
			Help: "Trakt API requests by endpoint and status code",
		},
		[]string{"method", "endpoint", "status"},
	)

	TraktRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_trakt_request_duration_seconds",
			Help:    "Trakt API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordBatch records one upload batch.
func RecordBatch(intent, category, outcome string, duration time.Duration) {
	SyncBatchesTotal.WithLabelValues(intent, category, outcome).Inc()
	SyncBatchDuration.WithLabelValues(intent, category).Observe(duration.Seconds())
}

// RecordRecords adds n records with the given result. Zero is a no-op.
func RecordRecords(intent, category, result string, n int) {
	if n <= 0 {
		return
	}
	SyncRecordsTotal.WithLabelValues(intent, category, result).Add(float64(n))
}

// RecordRemoteFetch records one comparison set fetch.
func RecordRemoteFetch(intent, category string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "unavailable"
	}
	RemoteFetchTotal.WithLabelValues(intent, category, result).Inc()
	RemoteFetchDuration.WithLabelValues(intent, category).Observe(duration.Seconds())
}

// RecordRun records a finished run.
func RecordRun(site, state string, duration time.Duration) {
	SyncRunsTotal.WithLabelValues(site, state).Inc()
	SyncRunDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// RecordTraktRequest records one HTTP call to Trakt. status is 0 on transport errors.
func RecordTraktRequest(method, endpoint string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	TraktRequestsTotal.WithLabelValues(method, endpoint, code).Inc()
	TraktRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
