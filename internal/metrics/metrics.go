// Package metrics provides Prometheus metrics for the face registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ScanBuckets covers exhaustive scans from a handful of records (sub-millisecond)
// up to registries large enough to take a few hundred milliseconds.
var ScanBuckets = prometheus.ExponentialBuckets(0.0001, 4, 8)

// Decision modes used as the "mode" label.
const (
	ModeIdentify = "identify"
	ModeVerify   = "verify"
	ModeRegister = "register"
)

var (
	// DecisionsTotal counts matching decisions by mode and outcome.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "face_registry_decisions_total",
			Help: "Matching decisions",
		},
		[]string{"mode", "outcome"},
	)

	// DecisionErrorsTotal counts decisions that failed on infrastructure errors.
	DecisionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "face_registry_decision_errors_total",
			Help: "Matching decisions aborted by store errors",
		},
		[]string{"mode"},
	)

	// DecisionDuration records decision latency (store round trips included) by mode.
	DecisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "face_registry_decision_duration_seconds",
			Help:    "Decision duration",
			Buckets: ScanBuckets,
		},
		[]string{"mode"},
	)

	// CorruptRecordsTotal counts stored records skipped because their descriptor was unusable.
	CorruptRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "face_registry_corrupt_records_total",
			Help: "Records skipped during scans due to unusable descriptors",
		},
	)

	// EnrolledIdentities tracks the registry size seen by the most recent snapshot.
	EnrolledIdentities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "face_registry_enrolled_identities",
			Help: "Enrolled identities",
		},
	)

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "face_registry_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "face_registry_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		DecisionsTotal,
		DecisionErrorsTotal,
		DecisionDuration,
		CorruptRecordsTotal,
		EnrolledIdentities,
		RequestsTotal,
		RequestDuration,
	)
}

// StatusClass maps an HTTP status code to its class label (2xx, 4xx, ...).
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
