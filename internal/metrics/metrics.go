// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cyberguard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_checks_total",
			Help: "Completed risk checks by input kind and verdict",
		},
		[]string{"kind", "verdict"},
	)

	ChecksRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_checks_rejected_total",
			Help: "Checks refused before scoring, by reason",
		},
		[]string{"kind", "reason"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_auth_events_total",
			Help: "Account events such as registrations and logins",
		},
		[]string{"event"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberguard_payments_total",
			Help: "Payment ledger transitions by status and plan",
		},
		[]string{"status", "plan"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func RecordCheck(kind, verdict string) {
	ChecksTotal.WithLabelValues(kind, verdict).Inc()
}

func RecordCheckRejected(kind, reason string) {
	ChecksRejectedTotal.WithLabelValues(kind, reason).Inc()
}

func RecordAuthEvent(event string) {
	AuthEventsTotal.WithLabelValues(event).Inc()
}

func RecordPayment(status, plan string) {
	PaymentsTotal.WithLabelValues(status, plan).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
