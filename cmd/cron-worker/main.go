package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mateoquiros/vendaria-backend/internal/cron"
	"github.com/mateoquiros/vendaria-backend/internal/notifications"
	"github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/db"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/metrics"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	pkgredis "github.com/mateoquiros/vendaria-backend/pkg/redis"
)

const cronLockKey = "cron-worker"

func main() {
	bootLogger := logger.New(logger.Options{ServiceName: "cron-worker"})
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
		ServiceName: "cron-worker",
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

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cronLockKey), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(runCtx, "failed to build cron lock", err)
		os.Exit(1)
	}

	gormDB := database.DB()
	outboxRepo := outbox.NewRepository(gormDB)

	expiryJob, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:        logg,
		DB:            database,
		PendingReader: orders.NewRepository(gormDB),
		Outbox:        outbox.NewService(outboxRepo, logg),
		OrderRepos:    cron.DefaultOrderRepos(gormDB),
		Transitions:   cron.DefaultTransitions(gormDB),
		Window:        cfg.Cron.PaymentWindow,
	})
	if err != nil {
		logg.Error(runCtx, "failed to build order expiry job", err)
		os.Exit(1)
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notifications.NewRepository(gormDB),
		Retention:  cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(runCtx, "failed to build notification cleanup job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetentionDays,
	})
	if err != nil {
		logg.Error(runCtx, "failed to build outbox retention job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(expiryJob)
	registry.Register(cleanupJob)
	registry.Register(retentionJob)

	promRegistry := prometheus.NewRegistry()
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(promRegistry),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(runCtx, "failed to build cron service", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "cron worker starting")
	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped with error", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker stopped")
}
