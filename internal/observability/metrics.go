package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aforos_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Dataset metrics, set once at startup.
	DatasetRows    prometheus.Gauge
	MissingCells   *prometheus.CounterVec // labels: field={year,month,count}
	DatasetLoadDur prometheus.Gauge

	// Recomputation metrics.
	PipelineRunning    prometheus.Gauge
	FilterChanges      *prometheus.CounterVec   // labels: input={year,month,vehicle_type}
	ViewRecomputations *prometheus.CounterVec   // labels: view
	ViewDuration       *prometheus.HistogramVec // labels: view
	ViewCache          *prometheus.CounterVec   // labels: view, result={hit,miss}
	SinkErrors         *prometheus.CounterVec   // labels: sink
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.DatasetRows,
		m.MissingCells,
		m.DatasetLoadDur,
		m.PipelineRunning,
		m.FilterChanges,
		m.ViewRecomputations,
		m.ViewDuration,
		m.ViewCache,
		m.SinkErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Number of canonical records loaded at startup.",
		}),
		MissingCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_missing_cells_total",
			Help:      "Cells coerced to missing while cleaning, by field.",
		}, []string{"field"}),
		DatasetLoadDur: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent loading and cleaning the dataset.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the recomputation loop is active, 0 when shut down.",
		}),
		FilterChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_changes_total",
			Help:      "Filter inputs that changed value, by input.",
		}, []string{"input"}),
		ViewRecomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_recomputations_total",
			Help:      "Derived view recomputations, by view.",
		}, []string{"view"}),
		ViewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_recompute_duration_seconds",
			Help:      "Duration of a single view recomputation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"view"}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "Memoised view lookups by view and result.",
		}, []string{"view", "result"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_publish_errors_total",
			Help:      "Failed refresh publications, by sink.",
		}, []string{"sink"}),
	}
}
