// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AuthAttemptsTotal counts signup and login attempts by outcome.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgauth_auth_attempts_total",
			Help: "Signup and login attempts",
		},
		[]string{"operation", "outcome"},
	)

	// GuardRejectionsTotal counts requests denied by the bearer token guard.
	GuardRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgauth_guard_rejections_total",
			Help: "Requests rejected by the request guard",
		},
		[]string{"reason"},
	)

	// OrganizationAccessTotal counts organization access decisions.
	OrganizationAccessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgauth_organization_access_total",
			Help: "Organization access decisions",
		},
		[]string{"decision"},
	)

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgauth_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orgauth_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EventsPublishedTotal counts domain events sent to the event bus.
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgauth_events_published_total",
			Help: "Domain events published",
		},
		[]string{"type", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		AuthAttemptsTotal,
		GuardRejectionsTotal,
		OrganizationAccessTotal,
		RequestsTotal,
		RequestDuration,
		EventsPublishedTotal,
	)
}
