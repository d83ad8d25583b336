package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mateoquiros/vendaria-backend/internal/notifications"
	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/db"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox/idempotency"
	"github.com/mateoquiros/vendaria-backend/pkg/pubsub"
	pkgredis "github.com/mateoquiros/vendaria-backend/pkg/redis"
)

const processedEventTTL = 7 * 24 * time.Hour

func main() {
	bootLogger := logger.New(logger.Options{ServiceName: "notification-worker"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		bootLogger.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error(ctx, "failed to load configuration", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "notification-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(runCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(runCtx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	redisClient, err := pkgredis.New(runCtx, cfg.Redis, logg)
	if err != nil {
		logg.Error(runCtx, "failed to connect to redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	broker, err := pubsub.NewClient(runCtx, cfg.PubSub, logg)
	if err != nil {
		logg.Error(runCtx, "failed to connect to pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := broker.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	manager, err := idempotency.NewManager(redisClient, processedEventTTL)
	if err != nil {
		logg.Error(runCtx, "failed to build idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(
		notifications.NewRepository(database.DB()),
		broker.DomainSubscription(),
		manager,
		logg,
	)
	if err != nil {
		logg.Error(runCtx, "failed to build notification consumer", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "notification worker starting")
	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped with error", err)
		os.Exit(1)
	}
	logg.Info(ctx, "notification worker stopped")
}
