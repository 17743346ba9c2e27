package consol

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Metrics counts consolidation activity.
type Metrics interface {
	ConsolidationRun(balanced bool)
}

type noopMetrics struct{}

func (noopMetrics) ConsolidationRun(bool) {}

// Service orchestrates consolidation runs over the repository.
type Service struct {
	repo    Repository
	engine  *Engine
	metrics Metrics
	logger  *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger, metrics Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		repo:    repo,
		engine:  NewEngine(repo, logger),
		metrics: metrics,
		logger:  logger,
	}
}

// Engine exposes the underlying engine, used by tests to pin the clock.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Run consolidates one period and persists the snapshot. Nothing is
// persisted when the run fails or the context is cancelled.
func (s *Service) Run(ctx context.Context, periodStart, periodEnd time.Time) (Snapshot, error) {
	entities, err := s.repo.ListEntities(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	transactions, err := s.repo.ListTransactions(ctx, periodStart, periodEnd)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot, err := s.engine.Run(ctx, RunInput{
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		BaseCurrency: baseCurrency(entities),
		Entities:     entities,
		Transactions: transactions,
	})
	if err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	eliminated := make([]uuid.UUID, 0, len(snapshot.Eliminations))
	for _, applied := range snapshot.Eliminations {
		eliminated = append(eliminated, applied.TransactionID)
	}
	if err := s.repo.RecordRun(ctx, snapshot, eliminated); err != nil {
		return Snapshot{}, err
	}
	s.metrics.ConsolidationRun(snapshot.Balanced)
	return snapshot, nil
}

// Snapshot returns one stored run.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	return s.repo.GetSnapshot(ctx, id)
}

// Snapshots lists stored runs in generation order.
func (s *Service) Snapshots(ctx context.Context) ([]Snapshot, error) {
	return s.repo.ListSnapshots(ctx)
}

// baseCurrency is the parent's currency, falling back to the first entity.
func baseCurrency(entities []Entity) string {
	for _, entity := range entities {
		if entity.Role == RoleParent {
			return entity.Currency
		}
	}
	if len(entities) > 0 {
		return entities[0].Currency
	}
	return ""
}
