package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion
// pipeline. Long fetch and load runs push these through a textfile or
// pushgateway exporter; unit tests use NewMetricsForTesting.
type Metrics struct {
	FilesDownloaded prometheus.Counter
	FilesSkipped    prometheus.Counter
	FilesFailed     prometheus.Counter
	BytesDownloaded prometheus.Counter

	// Load metrics.
	RowsLoaded       *prometheus.CounterVec // label: table
	TablesSkipped    prometheus.Counter
	FileLoadDuration prometheus.Histogram

	// Normalizer metrics.
	FeaturesKept     prometheus.Counter
	FeaturesFiltered prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesDownloaded,
		m.FilesSkipped,
		m.FilesFailed,
		m.BytesDownloaded,
		m.RowsLoaded,
		m.TablesSkipped,
		m.FileLoadDuration,
		m.FeaturesKept,
		m.FeaturesFiltered,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "files_downloaded_total",
			Help:      "Remote files fully downloaded to local storage.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "files_skipped_total",
			Help:      "Fetch units skipped because the destination already exists.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "files_failed_total",
			Help:      "Fetch units that failed with a transport error.",
		}),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "bytes_downloaded_total",
			Help:      "Bytes streamed to local storage across all downloads.",
		}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "rows_loaded_total",
			Help:      "Rows inserted into target relations by table.",
		}, []string{"table"}),
		TablesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "tables_skipped_total",
			Help:      "Target relations skipped because they already held rows.",
		}),
		FileLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marine_ingest",
			Name:      "file_load_duration_seconds",
			Help:      "Duration of one staged file load: read, copy, convert.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		FeaturesKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "features_kept_total",
			Help:      "MPA features retained by the bounding-box filter.",
		}),
		FeaturesFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_ingest",
			Name:      "features_filtered_total",
			Help:      "MPA features dropped by the bounding-box filter.",
		}),
	}
}
