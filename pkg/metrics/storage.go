package metrics

import "time"

// StorageMetrics is the collector set pkg/storage's instrumented wrapper
// reports blob operations through.
type StorageMetrics interface {
	ObserveOperation(store, operation string, duration time.Duration, err error)
	RecordBytes(store, operation string, bytes int64)
}

// newPrometheusStorageMetrics is registered by
// pkg/metrics/prometheus/storage.go's init(), keeping this package free of
// a direct dependency on its concrete Prometheus implementation.
var newPrometheusStorageMetrics func() StorageMetrics

// RegisterStorageMetricsConstructor is called by
// pkg/metrics/prometheus/storage.go's init().
func RegisterStorageMetricsConstructor(ctor func() StorageMetrics) {
	newPrometheusStorageMetrics = ctor
}

// NewStorageMetrics returns a StorageMetrics, or nil when metrics are
// disabled. A nil StorageMetrics is safe to pass anywhere one is accepted;
// every method is a nil-receiver no-op.
func NewStorageMetrics() StorageMetrics {
	if !IsEnabled() || newPrometheusStorageMetrics == nil {
		return nil
	}
	return newPrometheusStorageMetrics()
}
