// Package prometheus holds the concrete Prometheus collector sets for the
// interfaces pkg/metrics declares, registered against its shared registry.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nextmu/updateservice/pkg/metrics"
)

func init() {
	metrics.RegisterStorageMetricsConstructor(newStorageMetrics)
}

type storageMetrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.HistogramVec
}

func newStorageMetrics() metrics.StorageMetrics {
	reg := metrics.GetRegistry()
	return &storageMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "updatesvc_storage_operations_total",
				Help: "Total number of blob storage operations by store and operation",
			},
			[]string{"store", "operation"},
		),
		errors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "updatesvc_storage_operation_errors_total",
				Help: "Total number of failed blob storage operations by store and operation",
			},
			[]string{"store", "operation"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "updatesvc_storage_operation_duration_seconds",
				Help:    "Duration of blob storage operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"store", "operation"},
		),
		bytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "updatesvc_storage_operation_bytes",
				Help: "Distribution of bytes transferred per blob storage operation",
				Buckets: []float64{
					16 * 1024, 64 * 1024, 512 * 1024,
					4 << 20, 32 << 20, 256 << 20, 1 << 30,
				},
			},
			[]string{"store", "operation"},
		),
	}
}

func (m *storageMetrics) ObserveOperation(store, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(store, operation).Inc()
	m.duration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if err != nil {
		m.errors.WithLabelValues(store, operation).Inc()
	}
}

func (m *storageMetrics) RecordBytes(store, operation string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.WithLabelValues(store, operation).Observe(float64(n))
}
