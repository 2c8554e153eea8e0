// Package metrics exposes Prometheus collectors for the ingest pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attmon_files_processed_total",
		Help: "Files handled by the ingest pipeline by outcome",
	}, []string{"outcome"}) // outcome=success|skipped|failed

	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attmon_records_total",
		Help: "Attendance rows ingested by action",
	}, []string{"action"}) // action=inserted|updated|unchanged|failed

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attmon_batch_size",
		Help:    "Number of files drained per batch",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attmon_queue_depth",
		Help: "Files currently queued for ingestion",
	})

	watcherRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attmon_watcher_restarts_total",
		Help: "Times the folder watcher was rebuilt after repeated failures",
	})

	watcherErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attmon_watcher_errors_total",
		Help: "Errors reported by the folder watcher",
	})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attmon_store_errors_total",
		Help: "Store operation failures by operation",
	}, []string{"op"})

	fileWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attmon_file_wait_seconds",
		Help:    "Time spent waiting for dropped files to stabilise",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attmon_exports_total",
		Help: "Exports produced by format",
	}, []string{"format"}) // format=csv|xlsx
)

// FileProcessed records a file outcome: "success", "skipped", or "failed".
func FileProcessed(outcome string) {
	filesProcessed.WithLabelValues(outcome).Inc()
}

// Records adds row counts from a file summary.
func Records(inserted, updated, unchanged, failed int) {
	recordsTotal.WithLabelValues("inserted").Add(float64(inserted))
	recordsTotal.WithLabelValues("updated").Add(float64(updated))
	recordsTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	recordsTotal.WithLabelValues("failed").Add(float64(failed))
}

// BatchDrained observes the size of a drained batch.
func BatchDrained(files int) {
	batchSize.Observe(float64(files))
}

// SetQueueDepth publishes the current queue depth.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// WatcherRestarted counts a watcher rebuild.
func WatcherRestarted() {
	watcherRestarts.Inc()
}

// WatcherError counts a watcher error.
func WatcherError() {
	watcherErrors.Inc()
}

// StoreError counts a failed store operation.
func StoreError(op string) {
	storeErrors.WithLabelValues(op).Inc()
}

// FileWait observes how long a file took to stabilise.
func FileWait(seconds float64) {
	fileWaitSeconds.Observe(seconds)
}

// Exported counts a produced export by format.
func Exported(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}
