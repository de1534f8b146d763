package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"

	"tradecontrol/internal/handlers"
	"tradecontrol/internal/journal"
	"tradecontrol/internal/routes"
	"tradecontrol/internal/scheduler"
	"tradecontrol/internal/trading"
	"tradecontrol/internal/ws"
	"tradecontrol/pkg/config"
	"tradecontrol/pkg/oracle"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()
	config.ExecuteMigrations()

	// Initialize RabbitMQ (optional, audit events are dropped if not configured)
	var publisher scheduler.Publisher
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()
		p, err := config.NewPublisher()
		if err != nil {
			logrus.Fatal("Failed to create publisher: ", err)
		}
		defer p.Close()
		publisher = p
		logrus.Info("RabbitMQ initialized successfully")
	} else {
		logrus.Info("RabbitMQ not configured, skipping initialization")
	}

	// Core components
	priceOracle := oracle.NewPriceOracle()
	tradingService, closeClients := trading.NewServiceFromEnv(priceOracle)
	defer closeClients()

	hub := ws.NewHub()
	defer hub.Close()

	tradeJournal := journal.New(config.DB)

	botScheduler := scheduler.New(tradeJournal, tradingService, hub, publisher)
	if err := botScheduler.Reconcile(context.Background()); err != nil {
		logrus.Fatal("Failed to reconcile bot schedules: ", err)
	}
	botScheduler.Start()

	handlers.Init(tradeJournal, tradingService, botScheduler, hub, publisher)

	// Set up router
	r := routes.SetupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()
	logrus.Infof("API server listening on :%s", port)

	// Wait for shutdown signal, then stop timers before closing the rest.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logrus.Info("Shutting down gracefully...")

	botScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	}

	config.CloseDB()
	logrus.Info("Shutdown complete")
}
