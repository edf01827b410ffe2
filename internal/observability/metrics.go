package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the portal.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	decisions *prometheus.CounterVec
	intake    *prometheus.CounterVec
	promoted  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_errors_total",
			Help: "HTTP errors by route, method and error code.",
		}, []string{"path", "method", "code"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_admin_decisions_total",
			Help: "Approval workflow decisions by subject, action and outcome.",
		}, []string{"subject", "action", "outcome"}),
		intake: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_contractor_intake_total",
			Help: "Contractor association outcomes at sign-up.",
		}, []string{"outcome"}),
		promoted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_users_promoted_total",
			Help: "Users moved to the CONTRACTOR role by the promotion cascade.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency, m.errors, m.decisions, m.intake, m.promoted)
	}
	return m
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordDecision counts an approval workflow outcome.
func (m *Metrics) RecordDecision(subject, action, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(subject, action, outcome).Inc()
}

// RecordIntake counts a contractor association outcome.
func (m *Metrics) RecordIntake(outcome string) {
	if m == nil {
		return
	}
	m.intake.WithLabelValues(outcome).Inc()
}

// RecordPromoted adds n promoted users.
func (m *Metrics) RecordPromoted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.promoted.Add(float64(n))
}
