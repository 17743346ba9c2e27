package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quipu-ledger/quipu/internal/app"
	"github.com/quipu-ledger/quipu/internal/audit"
	audithttp "github.com/quipu-ledger/quipu/internal/audit/http"
	"github.com/quipu-ledger/quipu/internal/coa"
	coahttp "github.com/quipu-ledger/quipu/internal/coa/http"
	"github.com/quipu-ledger/quipu/internal/consol"
	consolhttp "github.com/quipu-ledger/quipu/internal/consol/http"
	eventshttp "github.com/quipu-ledger/quipu/internal/events/http"
	"github.com/quipu-ledger/quipu/internal/journal"
	journalhttp "github.com/quipu-ledger/quipu/internal/journal/http"
	"github.com/quipu-ledger/quipu/internal/ledger"
	"github.com/quipu-ledger/quipu/internal/observability"
	"github.com/quipu-ledger/quipu/internal/platform/cache"
	"github.com/quipu-ledger/quipu/internal/platform/db"
	"github.com/quipu-ledger/quipu/internal/shared"
	"github.com/quipu-ledger/quipu/internal/statements"
	statementshttp "github.com/quipu-ledger/quipu/internal/statements/http"
	"github.com/quipu-ledger/quipu/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	coaRepo := coa.NewPgRepository(pool)
	coaService := coa.NewService(coaRepo, nil)

	journalRepo := journal.NewPgRepository(pool)
	journalService := journal.NewService(journalRepo, coaService, logger).
		WithAudit(auditLogger).
		WithMetrics(metrics)
	coaService.SetPostingChecker(journalService)

	if cfg.SeedChart {
		if err := coa.SeedDefaultChart(ctx, coaRepo); err != nil {
			logger.Error("seed chart of accounts", slog.Any("error", err))
			os.Exit(1)
		}
	}

	ledgerService := ledger.NewService(journalService, coaService)
	generator := statements.NewGenerator(ledgerService, statements.DefaultClassification())

	consolRepo := consol.NewPgRepository(pool)
	consolService := consol.NewService(consolRepo, logger, metrics)

	validator := audit.NewValidator(journalService, coaService, consolRepo, logger)

	reportCache := statementshttp.NewReportCache(redisClient, cfg.ReportCacheTTL, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	reportsHandler := statementshttp.NewHandler(ledgerService, generator, reportCache, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		Metrics:         metrics,
		AccountsHandler: coahttp.NewHandler(coaService, logger),
		JournalHandler: journalhttp.NewHandler(journalService, logger).
			WithCacheInvalidator(reportsHandler.InvalidateCache),
		EventsHandler: eventshttp.NewHandler(journalService, logger).
			WithCacheInvalidator(reportsHandler.InvalidateCache),
		ReportsHandler:       reportsHandler,
		ConsolidationHandler: consolhttp.NewHandler(consolService, logger),
		AuditHandler:         audithttp.NewHandler(validator, logger),
		JobsHandler:          jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
