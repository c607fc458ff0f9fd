// Package metrics exposes the Prometheus collectors shared by the worker
// pool, queue and source adapters, grounded on the obs package's package-
// level collector + init-time MustRegister shape.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	JobsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_jobs_completed_total",
		Help: "Total number of jobs completed successfully, by kind.",
	}, []string{"kind"})

	JobsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_jobs_failed_total",
		Help: "Total number of jobs that ended in a retry or terminal failure, by kind.",
	}, []string{"kind"})

	JobProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_job_processing_duration_seconds",
		Help:    "Time spent executing a job handler, by kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_queue_depth",
		Help: "Current job count by queue status.",
	}, []string{"status"})

	AdapterCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_adapter_calls_total",
		Help: "Total fetch attempts per source adapter kind, by outcome.",
	}, []string{"adapter_kind", "outcome"})

	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_circuit_breaker_state",
		Help: "0 Closed, 1 HalfOpen, 2 Open, by breaker name.",
	}, []string{"breaker"})

	WorkersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_workers_active",
		Help: "Number of worker goroutines currently running.",
	})
)

func init() {
	prometheus.MustRegister(
		JobsCompleted, JobsFailed, JobProcessingDuration, QueueDepth,
		AdapterCalls, CircuitBreakerState, WorkersActive,
	)
}
