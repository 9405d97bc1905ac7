package metrics

import "time"

// QueueMetrics is the collector set pkg/queue.Queue reports through across
// the enqueue/lease/complete/fail lifecycle.
type QueueMetrics interface {
	ObserveEnqueue(kind string)
	ObserveLease(kind string, waited time.Duration)
	ObserveComplete(kind string, duration time.Duration)
	ObserveFail(kind string)
	RecordDepth(pending, processing int64)
}

var newPrometheusQueueMetrics func() QueueMetrics

// RegisterQueueMetricsConstructor is called by
// pkg/metrics/prometheus/queue.go's init().
func RegisterQueueMetricsConstructor(ctor func() QueueMetrics) {
	newPrometheusQueueMetrics = ctor
}

// NewQueueMetrics returns a QueueMetrics, or nil when metrics are disabled.
func NewQueueMetrics() QueueMetrics {
	if !IsEnabled() || newPrometheusQueueMetrics == nil {
		return nil
	}
	return newPrometheusQueueMetrics()
}
