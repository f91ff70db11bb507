package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the PubMed fetch service.
// Metrics are organized by subsystem: E-utilities transport and batch
// orchestration. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// EutilsRequestsTotal counts HTTP requests to E-utilities endpoints, labeled by endpoint.
	EutilsRequestsTotal *prometheus.CounterVec

	// EutilsRequestsFailed counts failed E-utilities requests, labeled by endpoint.
	EutilsRequestsFailed *prometheus.CounterVec

	// EutilsRequestDuration observes E-utilities request duration in seconds, labeled by endpoint.
	EutilsRequestDuration *prometheus.HistogramVec

	// BatchRunsStarted counts batch runs initiated.
	BatchRunsStarted prometheus.Counter

	// BatchRunsCompleted counts batch runs that finished, including partial failures.
	BatchRunsCompleted prometheus.Counter

	// BatchRunDuration observes end-to-end batch run duration in seconds.
	BatchRunDuration prometheus.Histogram

	// BatchOperationsTotal counts per-identifier operations by kind and final status.
	BatchOperationsTotal *prometheus.CounterVec

	// BatchChunksDispatched counts dispatched chunks, labeled by operation kind.
	BatchChunksDispatched *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		EutilsRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eutils_requests_total",
			Help:      "Total number of HTTP requests to E-utilities endpoints",
		}, []string{"endpoint"}),
		EutilsRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eutils_requests_failed_total",
			Help:      "Total number of failed E-utilities requests",
		}, []string{"endpoint"}),
		EutilsRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "eutils_request_duration_seconds",
			Help:      "E-utilities request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		BatchRunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_started_total",
			Help:      "Total number of batch runs started",
		}),
		BatchRunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_completed_total",
			Help:      "Total number of batch runs completed",
		}),
		BatchRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_run_duration_seconds",
			Help:      "End-to-end batch run duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		BatchOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_operations_total",
			Help:      "Total number of batch operations by kind and final status",
		}, []string{"kind", "status"}),
		BatchChunksDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_chunks_dispatched_total",
			Help:      "Total number of identifier chunks dispatched",
		}, []string{"kind"}),
	}
}
