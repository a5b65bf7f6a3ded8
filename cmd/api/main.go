package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/worklance/backend/internal/auth"
	"github.com/worklance/backend/internal/balance"
	"github.com/worklance/backend/internal/bookkeeping/postgres"
	"github.com/worklance/backend/internal/config"
	"github.com/worklance/backend/internal/escrow"
	"github.com/worklance/backend/internal/events/kafka"
	"github.com/worklance/backend/internal/jobs"
	"github.com/worklance/backend/internal/lifecycle"
	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
	"github.com/worklance/backend/internal/reconcile"
	"github.com/worklance/backend/internal/router"
	"github.com/worklance/backend/internal/tokenledger"
	"github.com/worklance/backend/internal/wallet"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// External token ledger and account derivation
	ledgerClient := tokenledger.NewClient(cfg.LedgerBaseURL, cfg.LedgerAPIKey)
	resolver := escrow.NewResolver(cfg.CustodianOwner(), logger)

	// Bookkeeping stores
	cashFlows := postgres.NewStore(pool)
	intents := postgres.NewIntents(pool)
	disbursements := postgres.NewDisbursements(pool)

	if err := cashFlows.SeedTokenInfo(ctx, models.TokenInfo{
		LedgerID: cfg.CustodianOwner(),
		Name:     cfg.TokenName,
		Symbol:   cfg.TokenSymbol,
	}); err != nil {
		slog.Error("Failed to seed token metadata", "error", err)
		os.Exit(1)
	}

	// Events: Kafka is optional; without brokers the publisher stays nil
	// and publishing is skipped.
	var publisher payments.EventPublisher
	var kafkaPublisher *kafka.Publisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaPublisher = kafka.NewPublisher(brokers, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		slog.Info("Kafka publisher enabled", "brokers", brokers)
	}

	orchestrator := payments.NewOrchestrator(ledgerClient, cashFlows, intents, disbursements, resolver, publisher, logger)
	balanceSvc := balance.NewService(ledgerClient, cashFlows)

	// Jobs
	jobsRepo := jobs.NewRepository(pool)
	jobsSvc := jobs.NewService(jobsRepo, resolver)
	lifecycleSvc := lifecycle.NewService(jobsRepo, balanceSvc, orchestrator, resolver, logger)

	// Reconciliation worker flags phantom transfers on a fixed schedule.
	workers := river.NewWorkers()
	river.AddWorker(workers, reconcile.NewWorker(intents, publisher, cfg.StuckThreshold, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.ReconcileEvery),
				func() (river.JobArgs, *river.InsertOpts) {
					return reconcile.ReconcileIntentsArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	// Auth
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, []byte(cfg.JWTSecret))
	authHandler := auth.NewHandler(authSvc, logger)
	sessions := auth.NewManager()

	jobsHandler := jobs.NewHandler(jobsSvc, lifecycleSvc, logger)
	walletHandler := wallet.NewHandler(orchestrator, balanceSvc, cashFlows, resolver, logger)

	apiRouter := router.New(authHandler, jobsHandler, walletHandler, sessions, authSvc)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.ServerPort
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
