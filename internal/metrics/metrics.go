// Package metrics defines Prometheus metrics for library loads, audits and
// sidecar exports.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"aplib-go/internal/aplib"
	"aplib-go/internal/audit"
)

// Metrics holds the collectors of one aplib run on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	ObjectsLoaded    *prometheus.CounterVec
	ObjectsFailed    *prometheus.CounterVec
	AuditFiles       *prometheus.GaugeVec
	AuditKeys        *prometheus.GaugeVec
	SidecarsExported *prometheus.CounterVec
	LastRun          prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ObjectsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aplib_objects_loaded_total",
				Help: "Library records decoded and stored, by kind",
			},
			[]string{"kind"},
		),
		ObjectsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aplib_objects_failed_total",
				Help: "Library record files that could not be decoded, by kind",
			},
			[]string{"kind"},
		),
		AuditFiles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aplib_audit_files",
				Help: "Files of the last audit, by outcome",
			},
			[]string{"outcome"},
		),
		AuditKeys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aplib_audit_keys",
				Help: "Unparsed key occurrences of the last audit, by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
		SidecarsExported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aplib_sidecars_exported_total",
				Help: "XMP sidecar exports, by result",
			},
			[]string{"result"},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aplib_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
	m.registry.MustRegister(
		m.ObjectsLoaded, m.ObjectsFailed,
		m.AuditFiles, m.AuditKeys,
		m.SidecarsExported, m.LastRun,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Loaded implements aplib.Observer.
func (m *Metrics) Loaded(t aplib.ObjectType) {
	m.ObjectsLoaded.WithLabelValues(t.String()).Inc()
}

// Failed implements aplib.Observer.
func (m *Metrics) Failed(t aplib.ObjectType) {
	m.ObjectsFailed.WithLabelValues(t.String()).Inc()
}

// ObserveAudit sets the audit gauges from r.
func (m *Metrics) ObserveAudit(r *audit.Reporter) {
	m.AuditFiles.WithLabelValues("parsed").Set(float64(r.ParsedCount()))
	m.AuditFiles.WithLabelValues("skipped").Set(float64(r.SkippedCount()))
	m.AuditFiles.WithLabelValues("ignored").Set(float64(r.IgnoredCount()))

	m.AuditKeys.Reset()
	s := r.Summarize()
	for _, n := range s.Ignored {
		m.AuditKeys.WithLabelValues("ignored", "").Add(float64(n))
	}
	for _, reasons := range s.Skipped {
		for reason, n := range reasons {
			m.AuditKeys.WithLabelValues("skipped", reason.String()).Add(float64(n))
		}
	}
}

// ObserveExport adds the counts of one export batch.
func (m *Metrics) ObserveExport(written, empty, failed int) {
	m.SidecarsExported.WithLabelValues("written").Add(float64(written))
	m.SidecarsExported.WithLabelValues("empty").Add(float64(empty))
	m.SidecarsExported.WithLabelValues("failed").Add(float64(failed))
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

var _ aplib.Observer = (*Metrics)(nil)
