// Package metrics holds the Prometheus collectors of the API and worker processes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	EventTransitions    *prometheus.CounterVec
	Registrations       *prometheus.CounterVec
	AttendanceClaims    *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	JobsProcessed       *prometheus.CounterVec
}

// New registers the collectors with reg under prefix. reg must also be a Gatherer to serve /metrics.
func New(prefix string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		EventTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_event_transitions_total",
				Help: "Event approval status transitions",
			},
			[]string{"from", "to"},
		),
		Registrations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_event_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		AttendanceClaims: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_attendance_claims_total",
				Help: "Attendance claims by reconciliation outcome",
			},
			[]string{"outcome"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		JobsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_jobs_processed_total",
				Help: "Background jobs by type and result",
			},
			[]string{"type", "result"},
		),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Transition(from, to string) {
	if m != nil {
		m.EventTransitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) Registration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Attendance(outcome string, n int) {
	if m != nil && n > 0 {
		m.AttendanceClaims.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) Job(jobType, result string) {
	if m != nil {
		m.JobsProcessed.WithLabelValues(jobType, result).Inc()
	}
}
