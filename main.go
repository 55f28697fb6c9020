package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/chat"
	"github.com/courtoo/booking-engine/internal/config"
	"github.com/courtoo/booking-engine/internal/database"
	"github.com/courtoo/booking-engine/internal/directory"
	server "github.com/courtoo/booking-engine/internal/http"
	"github.com/courtoo/booking-engine/internal/metrics"
	"github.com/courtoo/booking-engine/internal/notifier/slack"
	"github.com/courtoo/booking-engine/internal/payments"
	"github.com/courtoo/booking-engine/internal/pubsub"
	"github.com/courtoo/booking-engine/internal/sweeper"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	directoryStore := directory.New(db)
	matchStore := booking.NewStore(db)
	chatStore := chat.NewStore(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	gateway := payments.NewClient(cfg.Payments.BaseURL, cfg.Payments.APIKey)
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	pubsub := pubsub.New(cfg.ProjectID)
	engine := booking.NewEngine(matchStore, directoryStore, chatStore, gateway, pubsub, metricsSvc, cfg.EnforceSkillLevel)

	sweep, err := sweeper.New(engine, directoryStore, notifier, cfg.SweepInterval)
	if err != nil {
		log.Fatalf("Failed to initialize sweeper: %s", err)
	}
	if err := sweep.Start(); err != nil {
		log.Fatalf("Failed to start sweeper: %s", err)
	}
	defer func() {
		if err := sweep.Stop(); err != nil {
			log.Error("Sweeper shutdown failed", "error", err)
		}
	}()

	s := server.NewServer(
		engine,
		directoryStore,
		chatStore,
		gateway,
		metricsSvc,
		metricsHandler,
		cfg,
		notifier,
		pubsub,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
