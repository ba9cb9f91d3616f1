package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics contains all Prometheus metrics related to metadata import.
type ImportMetrics struct {
	FilesProcessed prometheus.Counter
	FilesFailed    prometheus.Counter
	CardsImported  prometheus.Counter
	CardsSkipped   prometheus.Counter
	ParseFallbacks prometheus.Counter
	ImportDuration prometheus.Histogram
	BatchesRun     prometheus.Counter
}

// NewImportMetrics creates and registers the import metrics.
func NewImportMetrics(registry *prometheus.Registry) (*ImportMetrics, error) {
	m := &ImportMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register import metrics: %w", err)
	}
	return m, nil
}

func (m *ImportMetrics) initMetrics() {
	m.FilesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_files_processed_total",
		Help: "Total number of metadata files processed, failures included.",
	})

	m.FilesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_files_failed_total",
		Help: "Total number of metadata files that failed to import.",
	})

	m.CardsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_cards_imported_total",
		Help: "Total number of new cards created by import.",
	})

	m.CardsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_cards_skipped_total",
		Help: "Total number of cards skipped because their uuid already existed.",
	})

	m.ParseFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_parse_fallbacks_total",
		Help: "Total number of documents parsed through the MODS fallback.",
	})

	m.ImportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_file_duration_seconds",
		Help:    "Duration of single-file imports in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	m.BatchesRun = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_batches_total",
		Help: "Total number of batch import runs.",
	})
}

// Describe implements the prometheus.Collector interface.
func (m *ImportMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.FilesProcessed.Describe(ch)
	m.FilesFailed.Describe(ch)
	m.CardsImported.Describe(ch)
	m.CardsSkipped.Describe(ch)
	m.ParseFallbacks.Describe(ch)
	m.ImportDuration.Describe(ch)
	m.BatchesRun.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ImportMetrics) Collect(ch chan<- prometheus.Metric) {
	m.FilesProcessed.Collect(ch)
	m.FilesFailed.Collect(ch)
	m.CardsImported.Collect(ch)
	m.CardsSkipped.Collect(ch)
	m.ParseFallbacks.Collect(ch)
	m.ImportDuration.Collect(ch)
	m.BatchesRun.Collect(ch)
}
