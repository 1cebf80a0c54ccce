// Package metrics records pipeline observations in a Prometheus registry
// and writes them in textfile-collector format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

const namespace = "myco"

// Recorder implements ports.Metrics. Each run gets its own registry so a
// textfile reflects one run only.
type Recorder struct {
	registry *prometheus.Registry

	chunks        *prometheus.CounterVec
	chunkDuration prometheus.Histogram
	records       *prometheus.CounterVec
	documents     *prometheus.CounterVec
	references    *prometheus.CounterVec
	resolved      *prometheus.GaugeVec
	linkQuality   prometheus.Gauge
	runDuration   prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		chunks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunks processed by outcome.",
		}, []string{"status"}),
		chunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Time spent extracting one chunk, retries included.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Extracted records by outcome.",
		}, []string{"status"}),
		documents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Source documents by outcome.",
		}, []string{"status"}),
		references: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_total",
			Help:      "Relationship references seen during resolution.",
		}, []string{"kind"}),
		resolved: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolved_entities",
			Help:      "Entities in the resolved graph.",
		}, []string{"kind"}),
		linkQuality: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_quality_ratio",
			Help:      "Share of references that resolved to a real entity.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last extraction run.",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveChunk counts one chunk and its duration.
func (r *Recorder) ObserveChunk(status string, took time.Duration) {
	r.chunks.WithLabelValues(status).Inc()
	r.chunkDuration.Observe(took.Seconds())
}

// ObserveRun records the end-of-run counters.
func (r *Recorder) ObserveRun(summary entities.RunSummary) {
	r.records.WithLabelValues("accepted").Add(float64(summary.RecordsAccepted))
	r.records.WithLabelValues("rejected").Add(float64(summary.RecordsRejected))
	r.records.WithLabelValues("filtered").Add(float64(summary.RecordsFiltered))
	r.documents.WithLabelValues("processed").Add(float64(summary.Documents - summary.DocumentsFailed))
	r.documents.WithLabelValues("failed").Add(float64(summary.DocumentsFailed))
	if !summary.FinishedAt.IsZero() {
		r.runDuration.Set(summary.Duration().Seconds())
		r.lastRun.Set(float64(summary.FinishedAt.Unix()))
	}
}

// ObserveResolution records the link quality of a resolved graph.
func (r *Recorder) ObserveResolution(report entities.QualityReport) {
	r.references.WithLabelValues("resolved").Add(float64(report.Resolved))
	r.references.WithLabelValues("unresolved").Add(float64(report.Unresolved))
	r.references.WithLabelValues("mirrored").Add(float64(report.MirroredEdges))
	r.resolved.WithLabelValues("real").Set(float64(report.Entities - report.Stubs))
	r.resolved.WithLabelValues("stub").Set(float64(report.Stubs))
	r.linkQuality.Set(report.LinkQuality)
}

// WriteTextfile writes the registry for the node exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
