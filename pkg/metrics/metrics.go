package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Clinic API metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec

	// Front desk metrics
	SearchesIssued  *prometheus.CounterVec
	SearchesStale   *prometheus.CounterVec
	BookingOutcomes *prometheus.CounterVec
	FormOutcomes    *prometheus.CounterVec
	SessionEvents   *prometheus.CounterVec
	Workspaces      prometheus.Gauge

	// Audit metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
		}, []string{"method", "path", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clinic_api",
			Name:      "requests_total",
			Help:      "Total number of calls to the clinic API",
		}, []string{"operation", "outcome"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "clinic_api",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to the clinic API",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),

		SearchesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "desk",
			Name:      "searches_issued_total",
			Help:      "Search requests issued by search panels",
		}, []string{"entity", "mode"}),
		SearchesStale: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "desk",
			Name:      "searches_stale_total",
			Help:      "Search responses discarded because a newer search was issued",
		}, []string{"entity"}),
		BookingOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "desk",
			Name:      "bookings_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome", "matched"}),
		FormOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "desk",
			Name:      "form_submissions_total",
			Help:      "Form submissions by form and outcome",
		}, []string{"form", "outcome"}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "desk",
			Name:      "session_events_total",
			Help:      "Sign-ins and sign-outs by role",
		}, []string{"event", "role"}),
		Workspaces: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "desk",
			Name:      "workspaces",
			Help:      "Open front desk workspaces",
		}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "database_operations_total",
			Help:      "Total number of audit database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of audit database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

// New builds metrics on a private registry; handy for tests and tools.
func New(namespace string) *Metrics {
	return NewMetrics(prometheus.NewRegistry(), namespace)
}

// Outcome is a small helper for the common success/error label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
