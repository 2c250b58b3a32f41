/*
metrics.go - Prometheus metrics for the rent engine

PURPOSE:
  Exposes operational counters for the HTTP surface and the lifecycle
  operations behind it. Scraped from GET /metrics.

METRICS:
  rent_engine_http_requests_total{route,method,status}
  rent_engine_http_request_duration_seconds{route}
  rent_engine_payments_recorded_total
  rent_engine_stale_conflicts_total
  rent_engine_overdue_tenancies
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	PaymentsRecorded prometheus.Counter
	StaleConflicts   prometheus.Counter
	OverdueTenancies prometheus.Gauge
}

// NewMetrics initializes and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rent_engine",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rent_engine",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rent_engine",
			Name:      "payments_recorded_total",
			Help:      "Total number of payment reconciliations applied.",
		}),
		StaleConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rent_engine",
			Name:      "stale_conflicts_total",
			Help:      "Total number of optimistic-concurrency conflicts surfaced to clients.",
		}),
		OverdueTenancies: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "rent_engine",
			Name:      "overdue_tenancies",
			Help:      "Number of active tenancies with at least one overdue period, per the last sweep.",
		}),
	}
}

// Middleware instruments every request with the route pattern, not the
// raw path, so tenancy ids don't explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
