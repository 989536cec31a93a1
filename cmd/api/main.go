package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/global-vision-developer/adminpro-api/internal/config"
	"github.com/global-vision-developer/adminpro-api/internal/handler"
	deviceHandler "github.com/global-vision-developer/adminpro-api/internal/handler/device"
	notificationHandler "github.com/global-vision-developer/adminpro-api/internal/handler/notification"
	"github.com/global-vision-developer/adminpro-api/internal/middleware"
	"github.com/global-vision-developer/adminpro-api/internal/push"
	"github.com/global-vision-developer/adminpro-api/internal/repository/postgres"
	"github.com/global-vision-developer/adminpro-api/internal/router"
	notificationService "github.com/global-vision-developer/adminpro-api/internal/service/notification"
	"github.com/global-vision-developer/adminpro-api/pkg/messaging/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// The FCM client is initialized once and shared by every dispatch run.
	sender, err := push.NewFCMSender(context.Background(), cfg.FCM)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize FCM sender")
	}

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff(),
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	recipientRepo := postgres.NewRecipientRepository(baseRepo)

	// Services
	notificationSvc := notificationService.NewService(notificationRepo, recipientRepo, sender, broker)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Handlers
	h := handler.NewHandler()
	notificationH := notificationHandler.NewHandler(notificationSvc)
	deviceH := deviceHandler.NewHandler(recipientRepo)

	r := router.NewRouter(authMiddleware, notificationH, deviceH, h, router.RouterConfig{
		RateLimit:     rate.Limit(100),
		RateBurst:     200,
		Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		ListCacheTTL:  5 * time.Second,
		MetricsPrefix: "adminpro_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
