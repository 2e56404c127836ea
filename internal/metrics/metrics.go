package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcome labels
const (
	StatusParsed    = "parsed"
	StatusDegraded  = "degraded"
	StatusDuplicate = "duplicate"
	StatusCached    = "cached"
	StatusFailed    = "failed"
)

// Metrics holds all Prometheus metrics of an ingest run. It also serves as
// a parser observer.
type Metrics struct {
	Registry *prometheus.Registry

	Documents       *prometheus.CounterVec
	RowsDecoded     *prometheus.CounterVec
	RowsDiscarded   *prometheus.CounterVec
	SectionsMissing *prometheus.CounterVec
	ParseDuration   prometheus.Histogram
	LastRun         prometheus.Gauge
}

// New creates all metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autosupport_documents_total",
				Help: "Documents processed, by outcome (parsed, degraded, duplicate, cached, failed)",
			},
			[]string{"status"},
		),
		RowsDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autosupport_rows_decoded_total",
				Help: "Table rows decoded",
			},
			[]string{"table"},
		),
		RowsDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autosupport_rows_discarded_total",
				Help: "Section lines that did not decode into a row",
			},
			[]string{"table"},
		),
		SectionsMissing: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autosupport_sections_missing_total",
				Help: "Table sections not found in a document",
			},
			[]string{"table"},
		),
		ParseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "autosupport_parse_duration_seconds",
				Help:    "Time spent parsing one document",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "autosupport_last_run_timestamp_seconds",
				Help: "Unix time the last ingest run finished",
			},
		),
	}

	m.Registry.MustRegister(
		m.Documents,
		m.RowsDecoded,
		m.RowsDiscarded,
		m.SectionsMissing,
		m.ParseDuration,
		m.LastRun,
	)

	return m
}

// SectionMissing implements asup.Observer
func (m *Metrics) SectionMissing(table string) {
	m.SectionsMissing.WithLabelValues(table).Inc()
}

// RowDiscarded implements asup.Observer
func (m *Metrics) RowDiscarded(table, _ string) {
	m.RowsDiscarded.WithLabelValues(table).Inc()
}

// TableDecoded implements asup.Observer
func (m *Metrics) TableDecoded(table string, rows int) {
	m.RowsDecoded.WithLabelValues(table).Add(float64(rows))
}

// ObserveDocument counts one document outcome
func (m *Metrics) ObserveDocument(status string, took time.Duration) {
	m.Documents.WithLabelValues(status).Inc()
	if status == StatusParsed || status == StatusDegraded {
		m.ParseDuration.Observe(took.Seconds())
	}
}

// MarkRun records the end of a run
func (m *Metrics) MarkRun(at time.Time) {
	m.LastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
