// Package metrics exports Prometheus metrics for the HTTP layer and the
// attendance and identity flows.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. Each instance owns its registry so tests can
// build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	CheckInsTotal    prometheus.Counter
	CheckOutsTotal   prometheus.Counter
	WorkedMinutes    prometheus.Histogram
	ResolverOutcomes *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		CheckInsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attendance_checkins_total",
				Help:      "Successful employee check-ins",
			},
		),
		CheckOutsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attendance_checkouts_total",
				Help:      "Successful employee check-outs",
			},
		),
		WorkedMinutes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attendance_worked_minutes",
				Help:      "Minutes between check-in and check-out",
				Buckets:   []float64{30, 60, 120, 240, 360, 480, 540, 600, 720},
			},
		),
		ResolverOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "user_resolution_total",
				Help:      "User resolution outcomes by lookup step",
			},
			[]string{"step", "outcome"},
		),
	}
}

// Middleware records request count, latency and in-flight requests. The path
// label is the matched route template, which keeps cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// ObserveResolution is shaped to plug into the resolver's Observe hook.
func (m *Metrics) ObserveResolution(step, outcome string) {
	m.ResolverOutcomes.WithLabelValues(step, outcome).Inc()
}

// RecordCheckIn counts a successful check-in.
func (m *Metrics) RecordCheckIn() { m.CheckInsTotal.Inc() }

// RecordCheckOut counts a check-out and the minutes worked.
func (m *Metrics) RecordCheckOut(minutes float64) {
	m.CheckOutsTotal.Inc()
	m.WorkedMinutes.Observe(minutes)
}
