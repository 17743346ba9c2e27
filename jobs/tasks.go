// Package jobs runs scheduled ledger work over Asynq: the monthly
// consolidation run and the nightly ledger integrity audit.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quipu-ledger/quipu/internal/audit"
	"github.com/quipu-ledger/quipu/internal/consol"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskConsolidationRun consolidates the previous period.
	TaskConsolidationRun = "consolidation:run"
	// TaskLedgerIntegrity runs the audit checks over the journal.
	TaskLedgerIntegrity = "ledger:integrity"
)

// ConsolidationPayload selects the period to consolidate. Zero bounds mean
// the previous calendar month.
type ConsolidationPayload struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

// NewConsolidationTask constructs the consolidation task.
func NewConsolidationTask(payload ConsolidationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConsolidationRun, data), nil
}

// NewLedgerIntegrityTask constructs the integrity task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewConsolidationHandler processes TaskConsolidationRun tasks.
func NewConsolidationHandler(svc *consol.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ConsolidationPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		periodStart, periodEnd := payload.PeriodStart, payload.PeriodEnd
		if periodStart.IsZero() || periodEnd.IsZero() {
			periodStart, periodEnd = previousMonth(time.Now().UTC())
		}
		snapshot, err := svc.Run(ctx, periodStart, periodEnd)
		if err != nil {
			logger.Error("scheduled consolidation failed", slog.Any("error", err))
			return err
		}
		logger.Info("scheduled consolidation complete",
			slog.String("snapshot", snapshot.ID.String()),
			slog.Bool("balanced", snapshot.Balanced))
		return nil
	}
}

// NewLedgerIntegrityHandler processes TaskLedgerIntegrity tasks.
func NewLedgerIntegrityHandler(validator *audit.Validator, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		report, err := validator.Run(ctx)
		if err != nil {
			logger.Error("ledger integrity run failed", slog.Any("error", err))
			return err
		}
		if report.Status == audit.StatusFail {
			for _, check := range report.Checks {
				if check.Status == audit.StatusFail {
					logger.Error("ledger integrity check failed",
						slog.String("check", check.Name),
						slog.String("detail", check.Detail))
				}
			}
		} else {
			logger.Info("ledger integrity run complete", slog.String("status", string(report.Status)))
		}
		return nil
	}
}

// previousMonth returns the bounds of the calendar month before now.
func previousMonth(now time.Time) (time.Time, time.Time) {
	firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThis.AddDate(0, -1, 0)
	end := firstOfThis.AddDate(0, 0, -1)
	return start, end
}
