// Package metrics exposes Prometheus counters and histograms for drawing
// loading and field resolution.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/a3tai/mcp-drawing-fields/internal/fields"
)

const namespace = "drawing_fields"

// Metrics owns a private registry so tests and embedders never collide with
// the global one.
type Metrics struct {
	registry *prometheus.Registry

	documents     *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	documentSize  prometheus.Histogram
	ocrPages      prometheus.Counter
	fieldResults  *prometheus.CounterVec
	fieldDuration *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Drawings loaded, by token source and outcome",
			},
			[]string{"source", "status"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_load_duration_seconds",
				Help:      "Time spent turning a drawing into tokens",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		documentSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_tokens",
				Help:      "Number of tokens per loaded drawing",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
			},
		),
		ocrPages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ocr_pages_total",
				Help:      "Pages whose tokens came from OCR",
			},
		),
		fieldResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_results_total",
				Help:      "Field resolutions by field and whether a value was found",
			},
			[]string{"field", "found"},
		),
		fieldDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "field_duration_seconds",
				Help:      "Time spent resolving one field",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"field"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "MCP tool calls by tool and outcome",
			},
			[]string{"tool", "status"},
		),
	}

	m.registry.MustRegister(
		m.documents,
		m.loadDuration,
		m.documentSize,
		m.ocrPages,
		m.fieldResults,
		m.fieldDuration,
		m.toolCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveField implements fields.Observer
func (m *Metrics) ObserveField(field fields.Field, found bool, elapsed time.Duration) {
	m.fieldResults.WithLabelValues(string(field), strconv.FormatBool(found)).Inc()
	m.fieldDuration.WithLabelValues(string(field)).Observe(elapsed.Seconds())
}

// ObserveDocument records one drawing load. err is nil on success.
func (m *Metrics) ObserveDocument(source string, tokens, ocrPages int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.documents.WithLabelValues(source, status).Inc()
	m.loadDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err == nil {
		m.documentSize.Observe(float64(tokens))
		m.ocrPages.Add(float64(ocrPages))
	}
}

// ObserveTool records one MCP tool call
func (m *Metrics) ObserveTool(tool string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}
