package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_http_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campus_http_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// AuthFailuresTotal counts rejected requests by internal reason. The caller never sees the reason.
	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_auth_failures_total",
		Help: "The total number of rejected authentications by reason",
	}, []string{"reason"})

	// LoginAttemptsTotal counts logins by status.
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"status"})

	// SessionsInvalidatedTotal counts sessions switched to inactive.
	SessionsInvalidatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_sessions_invalidated_total",
		Help: "The total number of sessions invalidated",
	}, []string{"scope"})

	// SessionsSweptTotal counts session rows deleted by the cleanup job.
	SessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_sessions_swept_total",
		Help: "The total number of expired or inactive sessions deleted",
	})

	// JobRunsTotal counts background job runs by job and result.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_job_runs_total",
		Help: "The total number of background job runs",
	}, []string{"job", "result"})

	// RolloverEnrollmentsTotal counts rollover enrollment attempts by outcome (created, skipped, failed).
	RolloverEnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rollover_enrollments_total",
		Help: "The total number of rollover enrollment attempts by outcome",
	}, []string{"outcome"})
)
