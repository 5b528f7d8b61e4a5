package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/Stratton1/futurepreneurs-sub000/internal/approvals"
	"github.com/Stratton1/futurepreneurs-sub000/internal/config"
	"github.com/Stratton1/futurepreneurs-sub000/internal/dashboard"
	"github.com/Stratton1/futurepreneurs-sub000/internal/directory"
	"github.com/Stratton1/futurepreneurs-sub000/internal/notify"
	"github.com/Stratton1/futurepreneurs-sub000/internal/router"
	"github.com/Stratton1/futurepreneurs-sub000/internal/spending"
	"github.com/Stratton1/futurepreneurs-sub000/internal/velocity"
	"github.com/Stratton1/futurepreneurs-sub000/internal/wallet"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Invalid DATABASE_URL", "error", err)
		os.Exit(1)
	}
	// Wallet amounts are NUMERIC columns scanned into shopspring decimals.
	poolCfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Notification dispatch worker
	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewDispatchWorker(cfg.NotifierWebhookURL, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	notifier := notify.NewNotifier(func(ctx context.Context, args notify.DispatchNotificationArgs) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}, logger)

	// Velocity caps
	perTxn, err := config.Cap(cfg.MaxPerTransaction)
	if err != nil {
		slog.Error("Invalid VELOCITY_MAX_PER_TRANSACTION", "error", err)
		os.Exit(1)
	}
	daily, err := config.Cap(cfg.MaxPerDay)
	if err != nil {
		slog.Error("Invalid VELOCITY_MAX_PER_DAY", "error", err)
		os.Exit(1)
	}
	weekly, err := config.Cap(cfg.MaxPerWeek)
	if err != nil {
		slog.Error("Invalid VELOCITY_MAX_PER_WEEK", "error", err)
		os.Exit(1)
	}

	// Wiring: ledger, limiter, approval log, directory, request manager
	walletRepo := wallet.NewRepository(pool)
	walletSvc := wallet.NewService(walletRepo)

	limiter := velocity.NewLimiter(velocity.NewRepository(pool), velocity.Caps{
		PerTransaction: perTxn,
		Daily:          daily,
		Weekly:         weekly,
	})

	approvalRepo := approvals.NewRepository(pool)
	dirRepo := directory.NewRepository(pool)
	spendingRepo := spending.NewRepository(pool)
	spendingSvc := spending.NewService(spendingRepo, spendingRepo, walletSvc, limiter, approvalRepo, dirRepo, notifier, cfg.CoolingOff)

	spendingHandler := spending.NewHandler(spendingSvc, approvalRepo, dirRepo, limiter, logger)
	walletHandler := wallet.NewHandler(walletSvc, logger)
	dashboardHandler := dashboard.NewHandler(spendingSvc, walletSvc, logger)

	apiRouter := router.New(spendingHandler, walletHandler, dashboardHandler, []byte(cfg.JWTSecret))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	// Start River client (processes notification jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
