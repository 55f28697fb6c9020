package http

import (
	"net/http"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/chat"
	"github.com/courtoo/booking-engine/internal/config"
	"github.com/courtoo/booking-engine/internal/directory"
	"github.com/courtoo/booking-engine/internal/metrics"
	"github.com/courtoo/booking-engine/internal/notifier"
	"github.com/courtoo/booking-engine/internal/payments"
	"github.com/courtoo/booking-engine/internal/pubsub"
)

func NewServer(engine *booking.Engine, dir directory.Store, chatSvc chat.Service, gateway payments.Gateway, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, n notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Engine:         engine,
		Directory:      dir,
		Chat:           chatSvc,
		Payments:       gateway,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       n,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("POST /clear", Chain(s.ClearStoreHandler(), paramsMiddleware))

	s.Router.Handle("GET /matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches", Chain(s.CreateMatchHandler(), paramsMiddleware))
	s.Router.Handle("GET /matches/{id}", Chain(s.GetMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/join", Chain(s.JoinMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/requests", Chain(s.RequestJoinHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/requests/{requestID}/approve", Chain(s.ApproveRequestHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/requests/{requestID}/reject", Chain(s.RejectRequestHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/cancel", Chain(s.CancelMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/complete", Chain(s.CompleteMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{id}/confirm-payment", Chain(s.ConfirmPaymentHandler(), paramsMiddleware))

	s.Router.Handle("GET /chats/{id}/messages", Chain(s.ListMessagesHandler(), paramsMiddleware))
	s.Router.Handle("POST /chats/{id}/messages", Chain(s.PostMessageHandler(), paramsMiddleware))

	s.Router.Handle("GET /clubs", Chain(s.ListClubsHandler(), paramsMiddleware))
	s.Router.Handle("GET /clubs/{id}", Chain(s.GetClubHandler(), paramsMiddleware))
	s.Router.Handle("GET /clubs/{id}/courts", Chain(s.ListCourtsHandler(), paramsMiddleware))
	s.Router.Handle("GET /users/{id}", Chain(s.GetUserHandler(), paramsMiddleware))

	s.Router.Handle("POST /sweep", Chain(s.SweepHandler(), paramsMiddleware))
	s.Router.Handle("POST /events/refund", Chain(s.RefundEventHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
