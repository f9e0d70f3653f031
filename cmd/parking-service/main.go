package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-service/internal/auth"
	"parking-service/internal/config"
	"parking-service/internal/db"
	httphandler "parking-service/internal/http"
	"parking-service/internal/http/middleware"
	"parking-service/internal/logger"
	"parking-service/internal/notification"
	"parking-service/internal/repository"
	"parking-service/internal/retention"
	"parking-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zoneRepo := repository.NewZoneRepository(database)
	detectionRepo := repository.NewDetectionRepository(database)
	vehicleLogRepo := repository.NewVehicleLogRepository(database)
	subscriptionRepo := repository.NewSubscriptionRepository(database)

	publisher := notification.NewWebPushPublisher(notification.WebPushConfig{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:         cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
		WorkerPoolSize:  cfg.Push.WorkerPoolSize,
		QueueSize:       cfg.Push.QueueSize,
	}, subscriptionRepo, appLogger)
	publisher.Start(ctx)

	zoneService := service.NewZoneService(zoneRepo)
	scorer := service.NewPollutionScorer()
	admissionService := service.NewAdmissionService(database, zoneService, detectionRepo, publisher, scorer, appLogger)
	detectionService := service.NewDetectionService(detectionRepo)
	vehicleLogService := service.NewVehicleLogService(database, vehicleLogRepo, zoneService, appLogger)
	analyticsService := service.NewAnalyticsService(detectionRepo, vehicleLogRepo)

	if cfg.Retention.Enabled {
		sweeper := retention.NewSweeper(
			detectionService,
			cfg.Retention.Interval,
			time.Duration(cfg.Retention.Days)*24*time.Hour,
			appLogger,
		)
		go sweeper.Run(ctx)
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(
		admissionService,
		detectionService,
		zoneService,
		vehicleLogService,
		analyticsService,
		subscriptionRepo,
		publisher,
		cfg.Push.VAPIDPublicKey,
		appLogger,
	)
	authMiddleware := middleware.Auth(tokenParser)
	ingestLimiter := middleware.RateLimit(rate.Limit(cfg.Ingest.RateLimitPerSec), cfg.Ingest.RateLimitBurst)
	cacheMiddleware := middleware.Cache(cache.New(cfg.Cache.TTL, 2*cfg.Cache.TTL), cfg.Cache.TTL)
	router := httphandler.NewRouter(handler, authMiddleware, ingestLimiter, cacheMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting parking service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
