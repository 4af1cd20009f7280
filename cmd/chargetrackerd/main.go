package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"chargetracker-backend/config"
	"chargetracker-backend/internal/activecache"
	"chargetracker-backend/internal/api"
	"chargetracker-backend/internal/charging"
	"chargetracker-backend/internal/db"
	"chargetracker-backend/internal/feed"
	"chargetracker-backend/internal/logging"
	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/notification"
	"chargetracker-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("path", configPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	appStore := store.NewGormStore(gormDB)
	m := metrics.New()

	redisClient, err := activecache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("active check-in cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	active := activecache.NewStore(redisClient, cfg.RedisTTL())

	var (
		webpushOptions *webpush.Options
		notifier       charging.Notifier
	)
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Warn("VAPID keys are not configured, push notifications are disabled")
	} else {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, gormDB, webpushOptions, m, logger)
		pool.Start(ctx)
		notifier = pool
	}

	svc := charging.NewService(appStore, active, notifier, m, logger)

	feedSvc := feed.NewService(cfg.Feed, appStore, svc, m, logger)
	go feedSvc.Run(ctx)

	router := api.NewRouter(svc, appStore, webpushOptions, m, logger, api.Options{
		JWTSecret:       cfg.Auth.JWTSecret,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}

	logger.Info("server gracefully stopped")
}
