package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/global-vision-developer/adminpro-api/internal/config"
	"github.com/global-vision-developer/adminpro-api/internal/push"
	"github.com/global-vision-developer/adminpro-api/internal/repository/postgres"
	notificationService "github.com/global-vision-developer/adminpro-api/internal/service/notification"
	"github.com/global-vision-developer/adminpro-api/internal/worker"
	"github.com/global-vision-developer/adminpro-api/pkg/logger"
	"github.com/global-vision-developer/adminpro-api/pkg/messaging/redis"
	"github.com/global-vision-developer/adminpro-api/pkg/metrics"
)

func setupHealthCheck(logger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			logger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger := logger.FromZerolog(log.Logger)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		logger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	sender, err := push.NewFCMSender(context.Background(), cfg.FCM)
	if err != nil {
		logger.Fatal(err, "Failed to initialize FCM sender")
	}

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff(),
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		logger.Fatal(err, "Failed to connect to Redis")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	recipientRepo := postgres.NewRecipientRepository(baseRepo)

	notificationSvc := notificationService.NewService(notificationRepo, recipientRepo, sender, broker)

	dispatcher := worker.NewDispatcher(
		notificationRepo,
		notificationSvc,
		worker.DispatcherConfig{
			PollInterval: cfg.Dispatch.PollInterval(),
			BatchSize:    cfg.Dispatch.BatchSize,
			DueTolerance: cfg.Dispatch.DueTolerance(),
		},
		logger,
		metrics.NewMetrics("adminpro_dispatch"),
	)

	setupHealthCheck(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		cancel()
	}()

	dispatcher.Start(ctx)
}
