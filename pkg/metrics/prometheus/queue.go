package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nextmu/updateservice/pkg/metrics"
)

func init() {
	metrics.RegisterQueueMetricsConstructor(newQueueMetrics)
}

type queueMetrics struct {
	enqueued    *prometheus.CounterVec
	completed   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	leaseWait   *prometheus.HistogramVec
	jobDuration *prometheus.HistogramVec
	depth       *prometheus.GaugeVec
}

func newQueueMetrics() metrics.QueueMetrics {
	reg := metrics.GetRegistry()
	return &queueMetrics{
		enqueued: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "updatesvc_queue_jobs_enqueued_total",
				Help: "Total number of jobs enqueued by kind",
			},
			[]string{"kind"},
		),
		completed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "updatesvc_queue_jobs_completed_total",
				Help: "Total number of jobs completed by kind",
			},
			[]string{"kind"},
		),
		failed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "updatesvc_queue_jobs_failed_total",
				Help: "Total number of jobs that failed by kind",
			},
			[]string{"kind"},
		),
		leaseWait: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "updatesvc_queue_lease_wait_seconds",
				Help:    "Time a job spent pending before a worker leased it",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		jobDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "updatesvc_queue_job_duration_seconds",
				Help:    "Time a worker spent processing a job after leasing it",
				Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900, 3600},
			},
			[]string{"kind"},
		),
		depth: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "updatesvc_queue_depth",
				Help: "Current number of jobs by state",
			},
			[]string{"state"},
		),
	}
}

func (m *queueMetrics) ObserveEnqueue(kind string) {
	if m == nil {
		return
	}
	m.enqueued.WithLabelValues(kind).Inc()
}

func (m *queueMetrics) ObserveLease(kind string, waited time.Duration) {
	if m == nil {
		return
	}
	m.leaseWait.WithLabelValues(kind).Observe(waited.Seconds())
}

func (m *queueMetrics) ObserveComplete(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(kind).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *queueMetrics) ObserveFail(kind string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(kind).Inc()
}

func (m *queueMetrics) RecordDepth(pending, processing int64) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues("pending").Set(float64(pending))
	m.depth.WithLabelValues("processing").Set(float64(processing))
}
