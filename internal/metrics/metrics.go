// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Committed quiz submissions by kind (first or retake)",
		},
		[]string{"kind"},
	)

	submissionScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_submission_score",
			Help:    "Score of committed quiz submissions",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	quizCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_cache_lookups_total",
			Help: "Quiz cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveSubmission records a committed submission.
func ObserveSubmission(retake bool, score int) {
	kind := "first"
	if retake {
		kind = "retake"
	}
	submissions.WithLabelValues(kind).Inc()
	submissionScore.Observe(float64(score))
}

// ObserveCacheLookup records a quiz cache hit or miss for backend.
func ObserveCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	quizCacheLookups.WithLabelValues(backend, result).Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
