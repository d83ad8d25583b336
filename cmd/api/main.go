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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mateoquiros/vendaria-backend/api/routes"
	"github.com/mateoquiros/vendaria-backend/internal/balances"
	"github.com/mateoquiros/vendaria-backend/internal/cryptoaddrs"
	"github.com/mateoquiros/vendaria-backend/internal/notifications"
	"github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/payments"
	"github.com/mateoquiros/vendaria-backend/internal/products"
	"github.com/mateoquiros/vendaria-backend/internal/settlement"
	"github.com/mateoquiros/vendaria-backend/internal/shops"
	"github.com/mateoquiros/vendaria-backend/internal/users"
	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/db"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/metrics"
	"github.com/mateoquiros/vendaria-backend/pkg/migrate"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	pkgredis "github.com/mateoquiros/vendaria-backend/pkg/redis"
)

const shutdownGrace = 10 * time.Second

func main() {
	bootLogger := logger.New(logger.Options{ServiceName: "vendaria-api"})
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
		ServiceName: "vendaria-api",
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

	if err := migrate.MaybeRunDev(runCtx, cfg, logg, database); err != nil {
		logg.Error(runCtx, "dev auto-migrate failed", err)
		os.Exit(1)
	}

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	commerce := metrics.NewCommerceMetrics(registry)

	gormDB := database.DB()

	balanceSvc, err := balances.NewService(balances.NewRepository(gormDB))
	if err != nil {
		logg.Error(runCtx, "failed to build balance service", err)
		os.Exit(1)
	}
	shopSvc, err := shops.NewService(shops.NewRepository(gormDB))
	if err != nil {
		logg.Error(runCtx, "failed to build shop service", err)
		os.Exit(1)
	}
	userSvc, err := users.NewService(users.NewRepository(gormDB), cfg.FeatureFlags)
	if err != nil {
		logg.Error(runCtx, "failed to build user service", err)
		os.Exit(1)
	}
	addressSvc, err := cryptoaddrs.NewService(cryptoaddrs.NewRepository(gormDB))
	if err != nil {
		logg.Error(runCtx, "failed to build crypto address service", err)
		os.Exit(1)
	}
	resolver, err := payments.NewResolver(balanceSvc, addressSvc, shopSvc)
	if err != nil {
		logg.Error(runCtx, "failed to build payment resolver", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(gormDB)
	productSvc, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(runCtx, "failed to build product service", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	ordersRepo := orders.NewRepository(gormDB)

	settlementSvc, err := settlement.NewService(
		database,
		ordersRepo,
		settlement.NewTransitionRepository(gormDB),
		balanceSvc,
		shopSvc,
		outboxSvc,
		logg,
	)
	if err != nil {
		logg.Error(runCtx, "failed to build settlement service", err)
		os.Exit(1)
	}

	orderSvc, err := orders.NewService(
		database,
		ordersRepo,
		productsRepo,
		resolver,
		settlementSvc,
		userSvc,
		shopSvc,
		addressSvc,
		outboxSvc,
		logg,
	)
	if err != nil {
		logg.Error(runCtx, "failed to build order service", err)
		os.Exit(1)
	}

	notificationSvc, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(runCtx, "failed to build notification service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              database,
		Redis:           redisClient,
		Orders:          orderSvc,
		Settlement:      settlementSvc,
		Balances:        balanceSvc,
		Products:        productSvc,
		CryptoAddresses: addressSvc,
		Users:           userSvc,
		Notifications:   notificationSvc,
		Metrics:         commerce,
		Registry:        registry,
	})

	port := cfg.App.Port
	if fromEnv := os.Getenv("PORT"); fromEnv != "" {
		port = fromEnv
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(runCtx, "port", port), "api server starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server failed", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
