package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/quipu-ledger/quipu/internal/app"
	"github.com/quipu-ledger/quipu/internal/audit"
	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/consol"
	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/observability"
	"github.com/quipu-ledger/quipu/internal/platform/db"
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

	metrics := observability.NewMetrics()

	coaService := coa.NewService(coa.NewPgRepository(pool), nil)
	journalService := journal.NewService(journal.NewPgRepository(pool), coaService, logger)
	coaService.SetPostingChecker(journalService)

	consolRepo := consol.NewPgRepository(pool)
	consolService := consol.NewService(consolRepo, logger, metrics)
	validator := audit.NewValidator(journalService, coaService, consolRepo, logger)

	consolidationTask, err := jobs.NewConsolidationTask(jobs.ConsolidationPayload{})
	if err != nil {
		logger.Error("build consolidation task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskConsolidationRun, Handler: jobs.NewConsolidationHandler(consolService, logger)},
			{Type: jobs.TaskLedgerIntegrity, Handler: jobs.NewLedgerIntegrityHandler(validator, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ConsolidationCron, Task: consolidationTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.IntegrityCron, Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
