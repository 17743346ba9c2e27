package consol

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/quipu-ledger/quipu/internal/consol/fx"
	"github.com/quipu-ledger/quipu/internal/money"
)

// StatementSource produces one entity's statements in local currency.
type StatementSource interface {
	EntityBalances(ctx context.Context, entityID string, periodStart, periodEnd time.Time) (EntityBalances, error)
}

// Engine runs group consolidations: translate, scale, merge, eliminate.
// A run is all-or-nothing; cancellation discards partial results and an
// entity is never left half-eliminated.
type Engine struct {
	source StatementSource
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine wires the consolidation engine.
func NewEngine(source StatementSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{source: source, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

type entityResult struct {
	entity   Entity
	balances EntityBalances
	factor   decimal.Decimal
}

// Run executes one consolidation. Entities without an FX rate are excluded
// and flagged; eliminations already marked are no-ops; transactions whose
// target account is absent are skipped and reported.
func (e *Engine) Run(ctx context.Context, input RunInput) (Snapshot, error) {
	if len(input.Entities) == 0 {
		return Snapshot{}, ErrNoEntities
	}

	included := make([]entityResult, 0, len(input.Entities))
	excluded := make([]ExcludedEntity, 0)
	for _, entity := range input.Entities {
		if entity.FxRateToBase == nil || !(fx.Quote{Pair: entity.Currency + input.BaseCurrency, Rate: derefRate(entity)}).Valid() {
			e.logger.Warn("entity excluded from consolidation",
				slog.String("entity", entity.ID),
				slog.String("currency", entity.Currency))
			excluded = append(excluded, ExcludedEntity{EntityID: entity.ID, Reason: ErrMissingExchangeRate.Error()})
			continue
		}
		factor := derefRate(entity).Mul(entity.OwnershipPercent.Div(decimal.NewFromInt(100)))
		included = append(included, entityResult{entity: entity, factor: factor})
	}

	// Per-entity statements load concurrently; the first failure or a
	// cancellation stops the whole fan-out.
	grp, grpCtx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i := range included {
		i := i
		grp.Go(func() error {
			balances, err := e.source.EntityBalances(grpCtx, included[i].entity.ID, input.PeriodStart, input.PeriodEnd)
			if err != nil {
				return fmt.Errorf("entity %s: %w", included[i].entity.ID, err)
			}
			mu.Lock()
			included[i].balances = balances
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	balanceSheet := make(map[string]*ConsolidatedAccount)
	incomeStatement := make(map[string]*ConsolidatedAccount)
	var unconsolidatedAssets decimal.Decimal
	for _, result := range included {
		for _, line := range result.balances.BalanceSheet {
			mergeLine(balanceSheet, result.entity.ID, line, result.factor)
		}
		for _, line := range result.balances.IncomeStatement {
			mergeLine(incomeStatement, result.entity.ID, line, result.factor)
		}
		unconsolidatedAssets = unconsolidatedAssets.Add(fx.Translate(result.balances.AssetTotal, result.factor))
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}
	}

	rateByEntity := make(map[string]decimal.Decimal, len(included))
	for _, result := range included {
		rateByEntity[result.entity.ID] = derefRate(result.entity)
	}

	applied := make([]AppliedElimination, 0, len(input.Transactions))
	skipped := make([]SkippedTransaction, 0)
	for _, txn := range input.Transactions {
		if txn.Eliminated {
			continue // idempotent: re-running never subtracts twice
		}
		if txn.Date.Before(input.PeriodStart) || txn.Date.After(input.PeriodEnd) {
			continue
		}
		rate, ok := rateByEntity[txn.OriginEntity]
		if !ok {
			skipped = append(skipped, SkippedTransaction{
				TransactionID: txn.ID,
				AccountCode:   txn.AccountCode,
				Reason:        ErrMissingExchangeRate.Error(),
			})
			continue
		}
		bsAccount, bsOK := balanceSheet[txn.AccountCode]
		isAccount, isOK := incomeStatement[txn.AccountCode]
		if !bsOK && !isOK {
			skipped = append(skipped, SkippedTransaction{
				TransactionID: txn.ID,
				AccountCode:   txn.AccountCode,
				Reason:        ErrEliminationTargetNotFound.Error(),
			})
			continue
		}
		amount := fx.Translate(txn.Amount, rate)
		if bsOK {
			bsAccount.Eliminations = bsAccount.Eliminations.Add(amount)
			bsAccount.Consolidated = bsAccount.Consolidated.Sub(amount)
		}
		if isOK {
			isAccount.Eliminations = isAccount.Eliminations.Add(amount)
			isAccount.Consolidated = isAccount.Consolidated.Sub(amount)
		}
		applied = append(applied, AppliedElimination{TransactionID: txn.ID, AccountCode: txn.AccountCode, Amount: amount})
	}

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		ID:              uuid.New(),
		PeriodStart:     input.PeriodStart,
		PeriodEnd:       input.PeriodEnd,
		GeneratedAt:     e.now(),
		BaseCurrency:    input.BaseCurrency,
		BalanceSheet:    sortedAccounts(balanceSheet),
		IncomeStatement: sortedAccounts(incomeStatement),
		Eliminations:    applied,
		Excluded:        excluded,
		Skipped:         skipped,
	}
	snapshot.TotalAssets, snapshot.TotalLiabSideBalance, snapshot.Balanced = balanceCheck(snapshot.BalanceSheet)
	snapshot.MemberAssetTotal = money.Round2(unconsolidatedAssets)

	if unconsolidatedAssets.Cmp(snapshot.TotalAssets) < 0 && !money.WithinTolerance(unconsolidatedAssets, snapshot.TotalAssets) {
		e.logger.Error("consolidated assets exceed member assets",
			slog.String("unconsolidated", unconsolidatedAssets.StringFixed(2)),
			slog.String("consolidated", snapshot.TotalAssets.StringFixed(2)))
	}

	e.logger.Info("consolidation run complete",
		slog.String("snapshot", snapshot.ID.String()),
		slog.Int("entities", len(included)),
		slog.Int("eliminations", len(applied)),
		slog.Int("excluded", len(excluded)))
	return snapshot, nil
}

func derefRate(entity Entity) decimal.Decimal {
	if entity.FxRateToBase == nil {
		return decimal.Zero
	}
	return *entity.FxRateToBase
}

func mergeLine(accounts map[string]*ConsolidatedAccount, entityID string, line Line, factor decimal.Decimal) {
	account, ok := accounts[line.AccountCode]
	if !ok {
		account = &ConsolidatedAccount{
			Code:      line.AccountCode,
			Name:      line.AccountName,
			PerEntity: make(map[string]decimal.Decimal),
		}
		accounts[line.AccountCode] = account
	}
	amount := fx.Translate(line.Amount, factor)
	account.PerEntity[entityID] = account.PerEntity[entityID].Add(amount)
	account.Consolidated = account.Consolidated.Add(amount)
}

func sortedAccounts(accounts map[string]*ConsolidatedAccount) []ConsolidatedAccount {
	out := make([]ConsolidatedAccount, 0, len(accounts))
	for _, account := range accounts {
		account.Consolidated = money.Round2(account.Consolidated)
		account.Eliminations = money.Round2(account.Eliminations)
		out = append(out, *account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// balanceCheck recomputes the balance equation over consolidated figures.
// Asset accounts come signed positive, liability and equity side negative
// or positive per the source statements; the caller supplies both sides
// through account code convention (1x assets, 2x/3x liabilities+equity).
func balanceCheck(accounts []ConsolidatedAccount) (assets, liabSide decimal.Decimal, balanced bool) {
	for _, account := range accounts {
		if len(account.Code) == 0 {
			continue
		}
		switch account.Code[0] {
		case '1':
			assets = assets.Add(account.Consolidated)
		case '2', '3':
			liabSide = liabSide.Add(account.Consolidated)
		}
	}
	return money.Round2(assets), money.Round2(liabSide), money.WithinTolerance(assets, liabSide)
}
