package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FileIO operation label values.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDelete = "delete"
	OpList   = "list"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// DefaultFileIOLatencyBuckets are latency buckets for storage operations,
// covering local filesystems through object stores.
var DefaultFileIOLatencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
}

// FileIOMetrics holds metrics for storage operations. It implements
// fileio.MetricsRecorder.
type FileIOMetrics struct {
	// LatencyHistogram tracks storage operation latencies broken down by
	// operation and status.
	LatencyHistogram *prometheus.HistogramVec

	// OperationsTotal tracks total storage operations by operation and
	// status.
	OperationsTotal *prometheus.CounterVec

	// BytesWrittenTotal tracks total bytes written.
	BytesWrittenTotal prometheus.Counter
}

// NewFileIOMetrics creates and registers storage metrics with the default
// registry.
func NewFileIOMetrics() *FileIOMetrics {
	return newFileIOMetrics(promauto.NewHistogramVec, promauto.NewCounterVec, promauto.NewCounter)
}

// NewFileIOMetricsWithRegistry creates storage metrics registered with a
// custom registry.
func NewFileIOMetricsWithRegistry(reg prometheus.Registerer) *FileIOMetrics {
	factory := promauto.With(reg)
	return newFileIOMetrics(factory.NewHistogramVec, factory.NewCounterVec, factory.NewCounter)
}

func newFileIOMetrics(
	newHistogramVec func(prometheus.HistogramOpts, []string) *prometheus.HistogramVec,
	newCounterVec func(prometheus.CounterOpts, []string) *prometheus.CounterVec,
	newCounter func(prometheus.CounterOpts) prometheus.Counter,
) *FileIOMetrics {
	return &FileIOMetrics{
		LatencyHistogram: newHistogramVec(prometheus.HistogramOpts{
			Namespace: "silt",
			Subsystem: "fileio",
			Name:      "operation_latency_seconds",
			Help:      "Storage operation latency in seconds, broken down by operation and status.",
			Buckets:   DefaultFileIOLatencyBuckets,
		}, []string{"operation", "status"}),
		OperationsTotal: newCounterVec(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "fileio",
			Name:      "operations_total",
			Help:      "Total number of storage operations, broken down by operation and status.",
		}, []string{"operation", "status"}),
		BytesWrittenTotal: newCounter(prometheus.CounterOpts{
			Namespace: "silt",
			Subsystem: "fileio",
			Name:      "bytes_written_total",
			Help:      "Total bytes written to storage.",
		}),
	}
}

func statusLabel(success bool) string {
	if success {
		return StatusSuccess
	}
	return StatusFailure
}

func (m *FileIOMetrics) record(op string, durationSeconds float64, success bool) {
	status := statusLabel(success)
	m.LatencyHistogram.WithLabelValues(op, status).Observe(durationSeconds)
	m.OperationsTotal.WithLabelValues(op, status).Inc()
}

// RecordRead records a read operation.
func (m *FileIOMetrics) RecordRead(durationSeconds float64, success bool) {
	m.record(OpRead, durationSeconds, success)
}

// RecordWrite records a write operation.
func (m *FileIOMetrics) RecordWrite(durationSeconds float64, success bool, bytes int64) {
	m.record(OpWrite, durationSeconds, success)
	if success {
		m.BytesWrittenTotal.Add(float64(bytes))
	}
}

// RecordDelete records a delete operation.
func (m *FileIOMetrics) RecordDelete(durationSeconds float64, success bool) {
	m.record(OpDelete, durationSeconds, success)
}

// RecordList records a list operation.
func (m *FileIOMetrics) RecordList(durationSeconds float64, success bool) {
	m.record(OpList, durationSeconds, success)
}
