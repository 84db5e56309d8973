// Package metrics exposes Prometheus instruments for statement processing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "statement"

// Outcome labels
const (
	OutcomeSuccess     = "success"
	OutcomeUnsupported = "unsupported_format"
	OutcomeUnreadable  = "unreadable"
	OutcomeMissingDate = "missing_statement_date"
	OutcomeDuplicate   = "duplicate"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

type Metrics struct {
	registry              *prometheus.Registry
	extractions           *prometheus.CounterVec
	ingestions            *prometheus.CounterVec
	extractedTransactions *prometheus.HistogramVec
	processingDuration    prometheus.Histogram
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
}

// New creates the instruments on a fresh registry with Go and process collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Statement extractions by detected format and outcome.",
		}, []string{"format", "outcome"}),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Statement ingestions by outcome.",
		}, []string{"outcome"}),
		extractedTransactions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extracted_transactions",
			Help:      "Transactions extracted per statement.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250},
		}, []string{"format"}),
		processingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time spent processing one statement upload.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(m.extractions, m.ingestions, m.extractedTransactions, m.processingDuration, m.httpRequests, m.httpDuration)
	return m
}

// ObserveExtraction records one extraction attempt. Format is empty when detection failed.
func (m *Metrics) ObserveExtraction(format, outcome string, transactions int) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.extractions.WithLabelValues(format, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.extractedTransactions.WithLabelValues(format).Observe(float64(transactions))
	}
}

func (m *Metrics) ObserveIngestion(outcome string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveProcessing(d time.Duration) {
	if m == nil {
		return
	}
	m.processingDuration.Observe(d.Seconds())
}

// ObserveHTTPRequest records one served request. route is the matched route pattern.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
