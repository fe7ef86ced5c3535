// Package metrics holds the Prometheus collectors of the server. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scep"

type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	assignmentsCreated prometheus.Counter
	assignmentsDeleted prometheus.Counter
	reconcileFailures  prometheus.Counter
	submissions        *prometheus.CounterVec
}

// New registers the collectors on reg. Passing prometheus.NewRegistry() keeps
// tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		assignmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_created_total",
			Help:      "Pending assignments created by reconciliation",
		}),
		assignmentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_deleted_total",
			Help:      "Pending assignments withdrawn by reconciliation",
		}),
		reconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Per-row writes that failed during reconciliation",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Accepted questionnaire submissions",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.assignmentsCreated,
		m.assignmentsDeleted,
		m.reconcileFailures,
		m.submissions,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Reconciled records the outcome of one reconcile call.
func (m *Metrics) Reconciled(created, deleted, failed int) {
	if m == nil {
		return
	}
	m.assignmentsCreated.Add(float64(created))
	m.assignmentsDeleted.Add(float64(deleted))
	m.reconcileFailures.Add(float64(failed))
}

// Submitted records an accepted submission; resubmit distinguishes a
// replacement of existing responses from a first submission.
func (m *Metrics) Submitted(resubmit bool) {
	if m == nil {
		return
	}
	kind := "first"
	if resubmit {
		kind = "resubmit"
	}
	m.submissions.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	if m == nil {
		return func(c echo.Context) error { return c.NoContent(http.StatusNotFound) }
	}
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
