package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics counts what ingestion read and skipped, and how long each
// stage took. All methods are safe on a nil receiver.
type PipelineMetrics struct {
	FilesRead     prometheus.Counter
	FilesSkipped  prometheus.Counter
	RowsRead      prometheus.Counter
	RowsSkipped   prometheus.Counter
	StageDuration *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline collectors on reg
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		FilesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "labpulse",
			Name:      "files_read_total",
			Help:      "Input files that contributed rows to the table.",
		}),
		FilesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "labpulse",
			Name:      "files_skipped_total",
			Help:      "Input files skipped because they could not be read or parsed.",
		}),
		RowsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "labpulse",
			Name:      "rows_read_total",
			Help:      "Rows accepted into the table.",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "labpulse",
			Name:      "rows_skipped_total",
			Help:      "Malformed rows dropped during ingestion.",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "labpulse",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
	}
}

// ObserveIngest adds one ingestion outcome to the counters
func (m *PipelineMetrics) ObserveIngest(filesRead, filesSkipped, rowsRead, rowsSkipped int) {
	if m == nil {
		return
	}
	m.FilesRead.Add(float64(filesRead))
	m.FilesSkipped.Add(float64(filesSkipped))
	m.RowsRead.Add(float64(rowsRead))
	m.RowsSkipped.Add(float64(rowsSkipped))
}

// ObserveStage records the duration of one stage
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
