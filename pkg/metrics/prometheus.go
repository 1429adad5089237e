// Package metrics provides Prometheus metrics for the tagclips pipeline.
//
// The pipeline is a batch process, so metrics are not scraped; they are
// accumulated on a private registry and optionally written out in the
// node_exporter textfile format when a run ends.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "tagclips"
)

// defaultCutBuckets covers sub-second stream copies up to multi-minute
// re-encodes of long windows.
var defaultCutBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300} //nolint:gochecknoglobals // immutable defaults

// Manager owns every collector of the pipeline.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Run identity
	runInfo *prometheus.GaugeVec

	// Manifest normalization
	rowsRead          prometheus.Counter
	rowsWritten       prometheus.Counter
	rowsSkipped       *prometheus.CounterVec
	outcomesDefaulted prometheus.Counter

	// Clip extraction
	clipsWritten  *prometheus.CounterVec
	clipsExisting prometheus.Counter
	clipsFailed   *prometheus.CounterVec
	cutLatency    prometheus.Histogram
	queueDepth    prometheus.Gauge
	workersActive prometheus.Gauge

	// Split building
	splitRows *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Initialize global metrics on a private registry so Go runtime collectors
// stay out of the exported textfile.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		histogramBuckets: defaultCutBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runInfo = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "run_info",
		Help:      "Identity of the stage runs recorded in this registry",
	}, []string{"stage", "run_id"})

	m.rowsRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "manifest",
		Name:      "rows_read_total",
		Help:      "Raw export rows read",
	})
	m.rowsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "manifest",
		Name:      "rows_written_total",
		Help:      "Canonical manifest rows written",
	})
	m.rowsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "manifest",
		Name:      "rows_skipped_total",
		Help:      "Raw rows dropped, by reason",
	}, []string{"reason"})
	m.outcomesDefaulted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "manifest",
		Name:      "outcomes_defaulted_total",
		Help:      "Outcome tokens that were not recognized and defaulted to failure",
	})

	m.clipsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "clips",
		Name:      "written_total",
		Help:      "Clips indexed, by action",
	}, []string{"action"})
	m.clipsExisting = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "clips",
		Name:      "existing_total",
		Help:      "Clips whose destination already existed and were not re-cut",
	})
	m.clipsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "clips",
		Name:      "skipped_total",
		Help:      "Manifest rows that produced no clip, by reason",
	}, []string{"reason"})
	m.cutLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "clips",
		Name:      "cut_duration_seconds",
		Help:      "Wall time of one external cutter invocation",
		Buckets:   m.histogramBuckets,
	})
	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "clips",
		Name:      "queue_depth",
		Help:      "Extraction jobs waiting for a worker",
	})
	m.workersActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "clips",
		Name:      "workers",
		Help:      "Extraction workers running",
	})

	m.splitRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "splits",
		Name:      "rows_total",
		Help:      "Clip rows assigned, by split",
	}, []string{"split"})
}

// Registry exposes the manager's registry for gathering.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// RecordRun marks a stage run in the registry.
func RecordRun(stage, runID string) {
	globalManager.runInfo.WithLabelValues(stage, runID).Set(1)
}

// RecordRowRead increments the raw rows counter.
func RecordRowRead() {
	globalManager.rowsRead.Inc()
}

// RecordRowWritten increments the manifest rows counter.
func RecordRowWritten() {
	globalManager.rowsWritten.Inc()
}

// RecordRowSkipped increments the skipped rows counter for reason.
func RecordRowSkipped(reason string) {
	globalManager.rowsSkipped.WithLabelValues(reason).Inc()
}

// RecordOutcomeDefaulted increments the defaulted outcome counter.
func RecordOutcomeDefaulted() {
	globalManager.outcomesDefaulted.Inc()
}

// RecordClipWritten increments the indexed clips counter for action.
func RecordClipWritten(action string) {
	globalManager.clipsWritten.WithLabelValues(action).Inc()
}

// RecordClipExisting increments the already-present clips counter.
func RecordClipExisting() {
	globalManager.clipsExisting.Inc()
}

// RecordClipSkipped increments the skipped clips counter for reason.
func RecordClipSkipped(reason string) {
	globalManager.clipsFailed.WithLabelValues(reason).Inc()
}

// RecordCutLatency records one cutter invocation in seconds.
func RecordCutLatency(seconds float64) {
	globalManager.cutLatency.Observe(seconds)
}

// UpdateQueueDepth sets the number of queued extraction jobs.
func UpdateQueueDepth(n int) {
	globalManager.queueDepth.Set(float64(n))
}

// UpdateWorkerCount sets the number of running extraction workers.
func UpdateWorkerCount(n int) {
	globalManager.workersActive.Set(float64(n))
}

// RecordSplitRows adds n rows to split.
func RecordSplitRows(split string, n int) {
	globalManager.splitRows.WithLabelValues(split).Add(float64(n))
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return globalManager.registry
}

// WriteTextfile writes the global registry to path in the text exposition
// format. The write goes through a temp file and rename.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, globalManager.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}
