package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the HTTP API.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
	DocumentsImported *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lector_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lector_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "lector_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		DocumentsImported: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lector_documents_imported_total",
				Help: "Uploaded documents by outcome",
			},
			[]string{"result"},
		),
		LookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lector_lookups_total",
				Help: "Word lookups by source",
			},
			[]string{"source"},
		),
	}
}

// RecordRequest records one finished request.
func (m *Metrics) RecordRequest(method, route, status string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
