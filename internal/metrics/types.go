package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service is the Prometheus-backed Metrics implementation.
type Service struct {
	MatchesCreated     prometheus.Counter
	Joins              prometheus.Counter
	JoinConflicts      prometheus.Counter
	Cancellations      prometheus.Counter
	SweepRuns          prometheus.Counter
	RefundIntents      prometheus.Counter
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	OperationDuration  prometheus.Histogram
	StartupTimeSeconds prometheus.Gauge
}
