package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts completed sync task executions by type and outcome.
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Completed sync task executions partitioned by type and status.",
		},
		[]string{"type", "status"},
	)

	// PlatformRequests counts outbound platform API requests by outcome.
	PlatformRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_requests_total",
			Help: "Outbound platform API requests partitioned by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	// AggregationDuration observes time spent recomputing one metrics day.
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metrics_aggregation_duration_seconds",
			Help:    "Time spent recomputing daily metrics for one day.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TaskRetries counts scheduler retry dispatches by task name.
	TaskRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_retries_total",
			Help: "Task executions that failed and were re-enqueued.",
		},
		[]string{"task"},
	)

	// WebhooksReceived counts inbound webhook deliveries by topic and outcome.
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Inbound webhook deliveries partitioned by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)
)
