package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/db"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/metrics"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/pubsub"
)

func main() {
	bootLogger := logger.New(logger.Options{ServiceName: "outbox-publisher"})
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
		ServiceName: "outbox-publisher",
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

	commerce := metrics.NewCommerceMetrics(nil)

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         database,
		PubSub:     broker,
		Repository: outbox.NewRepository(database.DB()),
		Publisher:  newDomainPublisher(broker.DomainPublisher()),
		Metrics:    commerce,
	})
	if err != nil {
		logg.Error(runCtx, "failed to build outbox publisher", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "outbox publisher starting")
	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped with error", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher stopped")
}
