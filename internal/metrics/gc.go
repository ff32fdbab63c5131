// Package metrics defines Prometheus metrics for the GC engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GCMetrics holds metrics related to snapshot expiration and file deletion.
type GCMetrics struct {
	// DataFilesDeleted counts physically deleted data files (including
	// their auxiliary files).
	DataFilesDeleted prometheus.Counter

	// DataFilesSkippedByTag counts deletion candidates preserved because a
	// retained tag still references them.
	DataFilesSkippedByTag prometheus.Counter

	// ManifestsDeleted counts deleted manifest files and manifest lists.
	ManifestsDeleted prometheus.Counter

	// IndexFilesDeleted counts deleted index files.
	IndexFilesDeleted prometheus.Counter

	// DirectoriesReclaimed counts removed empty partition and bucket
	// directories.
	DirectoriesReclaimed prometheus.Counter

	// BulkDeleteDuration tracks the wall time of one bulk deletion batch.
	BulkDeleteDuration prometheus.Histogram
}

// DefaultBulkDeleteBuckets are latency buckets for bulk deletion batches,
// which range from sub-millisecond in-memory sweeps to multi-second object
// store batches.
var DefaultBulkDeleteBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0,
}

// NewGCMetrics creates and registers GC metrics.
// Uses promauto for automatic registration with the default registry.
func NewGCMetrics() *GCMetrics {
	return newGCMetrics(promauto.NewCounter, promauto.NewHistogram)
}

// NewGCMetricsWithRegistry creates GC metrics registered with a custom
// registry. Useful for testing to avoid conflicts with the default registry.
func NewGCMetricsWithRegistry(reg prometheus.Registerer) *GCMetrics {
	factory := promauto.With(reg)
	return newGCMetrics(factory.NewCounter, factory.NewHistogram)
}

func newGCMetrics(
	newCounter func(prometheus.CounterOpts) prometheus.Counter,
	newHistogram func(prometheus.HistogramOpts) prometheus.Histogram,
) *GCMetrics {
	return &GCMetrics{
		DataFilesDeleted: newCounter(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "gc",
			Name:      "data_files_deleted_total",
			Help:      "Total number of data files (and their auxiliary files) physically deleted.",
		}),
		DataFilesSkippedByTag: newCounter(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "gc",
			Name:      "data_files_skipped_by_tag_total",
			Help:      "Total number of deletion candidates preserved because a retained tag references them.",
		}),
		ManifestsDeleted: newCounter(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "gc",
			Name:      "manifests_deleted_total",
			Help:      "Total number of deleted manifest files and manifest lists.",
		}),
		IndexFilesDeleted: newCounter(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "gc",
			Name:      "index_files_deleted_total",
			Help:      "Total number of deleted index files and index manifests.",
		}),
		DirectoriesReclaimed: newCounter(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "gc",
			Name:      "directories_reclaimed_total",
			Help:      "Total number of removed empty partition and bucket directories.",
		}),
		BulkDeleteDuration: newHistogram(prometheus.HistogramOpts{
			Namespace: "silt",
			Subsystem: "gc",
			Name:      "bulk_delete_duration_seconds",
			Help:      "Wall time of one bulk deletion batch.",
			Buckets:   DefaultBulkDeleteBuckets,
		}),
	}
}
