// Package metrics holds chartline's prometheus collectors
//
// A nil *Metrics is valid everywhere and records nothing, so services and
// tests that do not care about metrics pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chartline"

// skip reasons for RecordsSkipped
const (
	ReasonMalformed = "malformed"
	ReasonClipped   = "clipped"
	ReasonNoWindow  = "no_window"
	ReasonTooFew    = "too_few_samples"
)

// Metrics owns a private registry so tests can build as many as they like
type Metrics struct {
	reg *prometheus.Registry

	RecordsScanned   prometheus.Counter
	DecodeErrors     prometheus.Counter
	RecordsSkipped   *prometheus.CounterVec
	SamplesEmitted   prometheus.Counter
	PartitionSeconds prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpSeconds  *prometheus.HistogramVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RecordsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scanned_total",
			Help:      "Records located by the TDF scanner",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Input lines dropped because they were not valid UTF-8",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records that produced no samples, by reason",
		}, []string{"reason"}),
		SamplesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_emitted_total",
			Help:      "Sample rows written to the sink",
		}),
		PartitionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "partition_seconds",
			Help:      "Wall time spent on one partition",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.reg.MustRegister(
		m.RecordsScanned,
		m.DecodeErrors,
		m.RecordsSkipped,
		m.SamplesEmitted,
		m.PartitionSeconds,
		m.httpRequests,
		m.httpSeconds,
	)
	return m
}

// Registry exposes the underlying registry, nil for a nil Metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the prometheus text or OpenMetrics format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Scanned adds n located records
func (m *Metrics) Scanned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsScanned.Add(float64(n))
}

// Decode adds n undecodable lines
func (m *Metrics) Decode(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DecodeErrors.Add(float64(n))
}

// Skipped counts one record dropped for reason
func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(reason).Inc()
}

// Emitted adds n sample rows
func (m *Metrics) Emitted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SamplesEmitted.Add(float64(n))
}

// Partition observes the time one partition took
func (m *Metrics) Partition(d time.Duration) {
	if m == nil {
		return
	}
	m.PartitionSeconds.Observe(d.Seconds())
}

// ObserveHTTP matches middleware.AccessLogOptions.Observe
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
