package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_matches_created_total",
			Help: "The total number of matches created.",
		}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_joins_total",
			Help: "The total number of successful joins, direct and approved.",
		}),
		JoinConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_join_conflicts_total",
			Help: "The total number of joins rejected because the match was full or already held the user.",
		}),
		Cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_cancellations_total",
			Help: "The total number of matches cancelled by their creator.",
		}),
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_sweep_runs_total",
			Help: "The total number of times the completion sweep has run.",
		}),
		RefundIntents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_refund_intents_total",
			Help: "The total number of refund intents published.",
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		OperationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "booking_operation_duration_seconds",
			Help:    "The duration of individual booking operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "booking_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesCreated,
		s.Joins,
		s.JoinConflicts,
		s.Cancellations,
		s.SweepRuns,
		s.RefundIntents,
		s.NotifSent,
		s.NotifFailed,
		s.OperationDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesCreated() {
	s.MatchesCreated.Inc()
}

func (s *Service) IncJoins() {
	s.Joins.Inc()
}

func (s *Service) IncJoinConflicts() {
	s.JoinConflicts.Inc()
}

func (s *Service) IncCancellations() {
	s.Cancellations.Inc()
}

func (s *Service) IncSweepRuns() {
	s.SweepRuns.Inc()
}

func (s *Service) IncRefundIntents() {
	s.RefundIntents.Inc()
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) ObserveOperationDuration(duration float64) {
	s.OperationDuration.Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
