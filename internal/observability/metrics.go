package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow result labels
const (
	ResultSuccess         = "success"
	ResultFailed          = "failed"
	ResultRejected        = "rejected"
	ResultConfirmFailed   = "confirm_failed"
	ResultExternalSkipped = "external_skipped"
)

var (
	// WorkflowResults counts publish, schedule and delete outcomes.
	WorkflowResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkbrand_workflow_results_total",
		Help: "Total number of publishing workflow outcomes by operation and result",
	}, []string{"operation", "result"})

	// AnalyticsSync counts per-post analytics sync attempts.
	AnalyticsSync = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkbrand_analytics_sync_total",
		Help: "Total number of per-post analytics sync attempts by result",
	}, []string{"result"})

	// UpstreamLatency records vendor call latency.
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkbrand_upstream_request_seconds",
		Help:    "Vendor API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"vendor", "operation"})

	// StuckPosts is the number of posts left in flight at the last check.
	StuckPosts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkbrand_stuck_posts",
		Help: "Posts left in publishing or untracked scheduled status past the threshold",
	})
)

// RecordWorkflow increments the workflow outcome counter
func RecordWorkflow(operation, result string) {
	WorkflowResults.WithLabelValues(operation, result).Inc()
}

// RecordSync increments the analytics sync counter
func RecordSync(ok bool) {
	result := ResultSuccess
	if !ok {
		result = ResultFailed
	}
	AnalyticsSync.WithLabelValues(result).Inc()
}

// TrackUpstream returns a function that records vendor latency when called (e.g. defer).
func TrackUpstream(vendor, operation string) func() {
	start := time.Now()
	return func() {
		UpstreamLatency.WithLabelValues(vendor, operation).Observe(time.Since(start).Seconds())
	}
}
