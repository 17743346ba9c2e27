package statements

import (
	"context"
	"time"

	"github.com/quipu-ledger/quipu/internal/ledger"
)

// BalanceSource supplies aggregated balances.
type BalanceSource interface {
	TrialBalance(ctx context.Context, asOf time.Time) (ledger.TrialBalance, error)
	Balances(ctx context.Context, from, to time.Time) ([]ledger.Balance, error)
}

// Generator derives statements from aggregated balances. All subtotals are
// reproducible from trial-balance output alone.
type Generator struct {
	balances BalanceSource
	cls      Classification
}

// NewGenerator wires the statement generator with a classification table.
func NewGenerator(balances BalanceSource, cls Classification) *Generator {
	return &Generator{balances: balances, cls: cls}
}

// IncomeStatement builds the income statement for [periodStart, periodEnd].
func (g *Generator) IncomeStatement(ctx context.Context, periodStart, periodEnd time.Time) (IncomeStatement, error) {
	rows, err := g.balances.Balances(ctx, periodStart, periodEnd)
	if err != nil {
		return IncomeStatement{}, err
	}
	out := BuildIncomeStatement(rows, g.cls)
	out.PeriodStart = periodStart
	out.PeriodEnd = periodEnd
	return out, nil
}

// BalanceSheet builds the balance sheet as of a date.
func (g *Generator) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	tb, err := g.balances.TrialBalance(ctx, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(tb.Rows, asOf)
}
