// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login attempts by result (success|invalid|error).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// Logouts counts completed logout sequences by kind (authenticated|anonymous).
	Logouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_auth_logouts_total",
			Help: "Total number of logout requests served",
		},
		[]string{"kind"},
	)

	// BestEffortFailures counts swallowed failures of non-fatal steps.
	BestEffortFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_auth_best_effort_failures_total",
			Help: "Failures of non-fatal steps that were logged and ignored",
		},
		[]string{"step"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_auth_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
