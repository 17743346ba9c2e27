package consol

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists consolidation inputs and outputs. MarkEliminated and
// PutSnapshot commit together through RecordRun so a snapshot is never
// stored with its transactions left unflagged.
type Repository interface {
	ListEntities(ctx context.Context) ([]Entity, error)
	ListTransactions(ctx context.Context, periodStart, periodEnd time.Time) ([]Transaction, error)
	EntityBalances(ctx context.Context, entityID string, periodStart, periodEnd time.Time) (EntityBalances, error)
	RecordRun(ctx context.Context, snapshot Snapshot, eliminatedIDs []uuid.UUID) error
	GetSnapshot(ctx context.Context, id uuid.UUID) (Snapshot, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
}
