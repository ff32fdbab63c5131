package fileio

import (
	"context"
	"io"
	"time"
)

// MetricsRecorder is the interface for recording FileIO operation metrics.
// This keeps the fileio package decoupled from the metrics package.
type MetricsRecorder interface {
	RecordRead(durationSeconds float64, success bool)
	RecordWrite(durationSeconds float64, success bool, bytes int64)
	RecordDelete(durationSeconds float64, success bool)
	RecordList(durationSeconds float64, success bool)
}

// Instrumented wraps a FileIO and records metrics for each operation.
type Instrumented struct {
	fio     FileIO
	metrics MetricsRecorder
}

// NewInstrumented creates an instrumented wrapper around a FileIO.
// If metrics is nil, operations pass through directly.
func NewInstrumented(fio FileIO, metrics MetricsRecorder) *Instrumented {
	return &Instrumented{fio: fio, metrics: metrics}
}

// NewReader opens the file at path for reading.
func (s *Instrumented) NewReader(ctx context.Context, path string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.fio.NewReader(ctx, path)
	if s.metrics != nil {
		s.metrics.RecordRead(time.Since(start).Seconds(), err == nil)
	}
	return rc, err
}

// WriteFile creates or replaces the file at path.
func (s *Instrumented) WriteFile(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	err := s.fio.WriteFile(ctx, path, data)
	if s.metrics != nil {
		s.metrics.RecordWrite(time.Since(start).Seconds(), err == nil, int64(len(data)))
	}
	return err
}

// Delete removes the file or directory at path.
func (s *Instrumented) Delete(ctx context.Context, path string, recursive bool) error {
	start := time.Now()
	err := s.fio.Delete(ctx, path, recursive)
	if s.metrics != nil {
		s.metrics.RecordDelete(time.Since(start).Seconds(), err == nil)
	}
	return err
}

// DeleteQuietly removes the file at path, swallowing every failure.
func (s *Instrumented) DeleteQuietly(ctx context.Context, path string) {
	start := time.Now()
	s.fio.DeleteQuietly(ctx, path)
	if s.metrics != nil {
		s.metrics.RecordDelete(time.Since(start).Seconds(), true)
	}
}

// Exists reports whether a file or directory exists at path.
func (s *Instrumented) Exists(ctx context.Context, path string) (bool, error) {
	return s.fio.Exists(ctx, path)
}

// Size returns the size in bytes of the file at path.
func (s *Instrumented) Size(ctx context.Context, path string) (int64, error) {
	return s.fio.Size(ctx, path)
}

// List returns the direct children of the directory at path.
func (s *Instrumented) List(ctx context.Context, path string) ([]Status, error) {
	start := time.Now()
	statuses, err := s.fio.List(ctx, path)
	if s.metrics != nil {
		s.metrics.RecordList(time.Since(start).Seconds(), err == nil)
	}
	return statuses, err
}

// Close releases resources associated with the underlying FileIO.
func (s *Instrumented) Close() error {
	return s.fio.Close()
}

// Verify interface compliance at compile time.
var _ FileIO = (*Instrumented)(nil)
