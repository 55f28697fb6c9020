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

type Server struct {
	Engine         *booking.Engine
	Directory      directory.Store
	Chat           chat.Service
	Payments       payments.Gateway
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
