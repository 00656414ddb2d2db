package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/devmarket/escrow/internal/adapter/http"
	"github.com/devmarket/escrow/internal/adapter/http/handler"
	"github.com/devmarket/escrow/internal/adapter/http/middleware"
	postgresRepo "github.com/devmarket/escrow/internal/adapter/repository/postgres"
	redisRepo "github.com/devmarket/escrow/internal/adapter/repository/redis"
	"github.com/devmarket/escrow/internal/infrastructure/config"
	"github.com/devmarket/escrow/internal/infrastructure/eventpublisher"
	"github.com/devmarket/escrow/internal/infrastructure/logger"
	"github.com/devmarket/escrow/internal/infrastructure/metrics"
	"github.com/devmarket/escrow/internal/infrastructure/postgres"
	"github.com/devmarket/escrow/internal/infrastructure/redis"
	"github.com/devmarket/escrow/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	policy, err := cfg.CommissionPolicy()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("invalid commission policy")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	projectRepo := postgresRepo.NewProjectRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	milestoneRepo := postgresRepo.NewMilestoneRepository(pool)
	commissionRepo := postgresRepo.NewCommissionRepository(pool)
	payoutRepo := postgresRepo.NewPayoutRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	profiles := redisRepo.NewCachedProfileDirectory(
		postgresRepo.NewProfileRepository(pool),
		redisClient,
		redisRepo.DefaultProfileTTL,
	)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Use cases
	escrowUC := usecase.NewEscrowUseCase(txManager, projectRepo, entryRepo, milestoneRepo, outboxRepo, auditRepo, idGen, retrier, m)
	milestoneUC := usecase.NewMilestoneUseCase(txManager, projectRepo, milestoneRepo, entryRepo, commissionRepo, outboxRepo, auditRepo, profiles, policy, idGen, retrier, m)
	payoutUC := usecase.NewPayoutUseCase(txManager, payoutRepo, commissionRepo, outboxRepo, auditRepo, profiles, idGen, retrier, m)
	ledgerUC := usecase.NewLedgerUseCase(projectRepo, entryRepo)

	// HTTP surface
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ProjectHandler:   handler.NewProjectHandler(escrowUC),
		MilestoneHandler: handler.NewMilestoneHandler(milestoneUC),
		PayoutHandler:    handler.NewPayoutHandler(payoutUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
		Metrics:          m,
		Logging:          middleware.NewLoggingMiddleware(appLogger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Outbox drain loop
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(appLogger),
		Logger:     appLogger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
