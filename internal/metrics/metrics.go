// Package metrics registers the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	// Repositories
	RepoOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_operation_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "entity", "operation"},
	)

	RepoOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_operation_errors_total",
			Help: "Repository operations that returned an error",
		},
		[]string{"backend", "entity", "operation"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_events_published_total",
			Help: "Review activity events handed to the broker, by outcome",
		},
		[]string{"type", "outcome"},
	)

	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_events_consumed_total",
			Help: "Review activity events written by the consumer",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRepoOp records a repository call that started at start.
func RecordRepoOp(backend, entity, operation string, start time.Time, err error) {
	RepoOpDuration.WithLabelValues(backend, entity, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		RepoOpErrors.WithLabelValues(backend, entity, operation).Inc()
	}
}

// RecordPublish records the outcome of publishing one event.
func RecordPublish(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	EventsPublished.WithLabelValues(eventType, outcome).Inc()
}

func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
