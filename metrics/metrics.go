// Package metrics provides Prometheus metrics for the HTTP surface and for the
// vendor APIs the service calls.
//
// All metrics are registered with the Prometheus default registry during
// package initialization and exposed on /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/prometheus/client_golang/prometheus"
)

// Vendor call outcomes
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Rate limiter buckets currently held, one per client IP",
		},
	)

	VendorRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_request_total",
			Help: "Outbound vendor API calls by outcome",
		},
		[]string{"vendor", "outcome"},
	)

	VendorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_request_duration_seconds",
			Help:    "Outbound vendor API latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"vendor"},
	)

	EmailDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_dispatch_total",
			Help: "Caregiver alert emails by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ReminderMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_messages_total",
			Help: "Reminder messages by source (generated or fallback)",
		},
		[]string{"source"},
	)

	VendorUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vendor_up",
			Help: "1 when the last reachability probe for the vendor succeeded",
		},
		[]string{"vendor"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(VendorRequestTotal)
	prometheus.MustRegister(VendorRequestDuration)
	prometheus.MustRegister(EmailDispatchTotal)
	prometheus.MustRegister(ReminderMessagesTotal)
	prometheus.MustRegister(VendorUp)
}

// Outcome classifies a vendor call error for the outcome label
func Outcome(err error) string {
	var upstream *entities.UpstreamError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, entities.ErrNotFound):
		return OutcomeNotFound
	case errors.As(err, &upstream) && upstream.Timeout():
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// ObserveVendorCall records one outbound call started at start
func ObserveVendorCall(vendor string, start time.Time, err error) {
	VendorRequestTotal.WithLabelValues(vendor, Outcome(err)).Inc()
	VendorRequestDuration.WithLabelValues(vendor).Observe(time.Since(start).Seconds())
}

// SetVendorUp mirrors a probe result into the vendor_up gauge
func SetVendorUp(vendor string, up bool) {
	value := 0.0
	if up {
		value = 1
	}
	VendorUp.WithLabelValues(vendor).Set(value)
}
