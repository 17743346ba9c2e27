// Package ledger derives per-account balances and the trial balance from
// the posted journal. It only ever reads entries; the journal is the
// single source of truth and every figure here is recomputable from it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/money"
	"github.com/quipu-ledger/quipu/internal/shared"
)

var (
	// ErrLedgerDesync indicates the journal no longer balances globally.
	// This is a Journal Engine bug, never a user error.
	ErrLedgerDesync = shared.Integrity(errors.New("ledger: aggregate debits and credits diverged"))
	// ErrOrphanAccount indicates a journal line references an account
	// missing from the current chart.
	ErrOrphanAccount = shared.Integrity(errors.New("ledger: journal line references unknown account"))
)

// EntrySource reads journal entries.
type EntrySource interface {
	Query(ctx context.Context, filter journal.Filter) ([]journal.Entry, error)
}

// ChartSource loads the chart of accounts as an arena tree.
type ChartSource interface {
	Tree(ctx context.Context) (*coa.Tree, error)
}

// Balance is a derived per-account aggregate over a period. Net is signed
// per the account nature.
type Balance struct {
	AccountCode string
	AccountName string
	ParentCode  string
	Type        coa.Type
	Nature      coa.Nature
	Level       int
	PeriodStart time.Time
	PeriodEnd   time.Time
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Net         decimal.Decimal
}

// TrialBalance aggregates every account with activity up to AsOf.
type TrialBalance struct {
	AsOf        time.Time
	Rows        []Balance
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Service computes balances from the journal and the chart.
type Service struct {
	entries EntrySource
	chart   ChartSource
}

// NewService wires the aggregator.
func NewService(entries EntrySource, chart ChartSource) *Service {
	return &Service{entries: entries, chart: chart}
}

// TrialBalance sums debits and credits per account for every posting dated
// at or before asOf. Parent balances roll up from their children in a
// single bottom-up pass; the journal is scanned once.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	rows, totalDebit, totalCredit, err := s.balances(ctx, time.Time{}, asOf)
	if err != nil {
		return TrialBalance{}, err
	}
	return TrialBalance{AsOf: asOf, Rows: rows, TotalDebit: totalDebit, TotalCredit: totalCredit}, nil
}

// Balances returns per-account aggregates restricted to [from, to]. The
// statement generator uses this for period reports.
func (s *Service) Balances(ctx context.Context, from, to time.Time) ([]Balance, error) {
	rows, _, _, err := s.balances(ctx, from, to)
	return rows, err
}

type accumulator struct {
	debit  decimal.Decimal
	credit decimal.Decimal
}

func (s *Service) balances(ctx context.Context, from, to time.Time) ([]Balance, decimal.Decimal, decimal.Decimal, error) {
	entries, err := s.entries.Query(ctx, journal.Filter{From: from, To: to})
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}
	tree, err := s.chart.Tree(ctx)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}

	// A voided entry and its reversal cancel exactly; skipping the pair
	// keeps balances identical to a journal where the entry never existed.
	own := make(map[string]accumulator)
	var totalDebit, totalCredit decimal.Decimal
	for _, entry := range entries {
		if entry.Status == journal.StatusVoided || entry.IsReversal() {
			continue
		}
		for _, line := range entry.Lines {
			if _, err := tree.Resolve(line.AccountCode); err != nil {
				return nil, decimal.Zero, decimal.Zero,
					fmt.Errorf("%w: account %s in entry %d", ErrOrphanAccount, line.AccountCode, entry.Number)
			}
			acc := own[line.AccountCode]
			acc.debit = acc.debit.Add(line.Debit)
			acc.credit = acc.credit.Add(line.Credit)
			own[line.AccountCode] = acc
			totalDebit = totalDebit.Add(line.Debit)
			totalCredit = totalCredit.Add(line.Credit)
		}
	}

	if !money.WithinTolerance(totalDebit, totalCredit) {
		return nil, decimal.Zero, decimal.Zero,
			fmt.Errorf("%w: debits %s vs credits %s", ErrLedgerDesync, totalDebit.StringFixed(2), totalCredit.StringFixed(2))
	}

	// Bottom-up rollup: a parent balance is the sum of its children plus
	// any postings made directly against the parent code.
	rolled := make(map[string]accumulator)
	tree.WalkBottomUp(func(account coa.Account, children []coa.Account) {
		acc := own[account.Code]
		for _, child := range children {
			childAcc := rolled[child.Code]
			acc.debit = acc.debit.Add(childAcc.debit)
			acc.credit = acc.credit.Add(childAcc.credit)
		}
		rolled[account.Code] = acc
	})

	rows := make([]Balance, 0, len(rolled))
	for _, account := range tree.Accounts() {
		acc := rolled[account.Code]
		if acc.debit.IsZero() && acc.credit.IsZero() {
			continue
		}
		rows = append(rows, Balance{
			AccountCode: account.Code,
			AccountName: account.Name,
			ParentCode:  account.ParentCode,
			Type:        account.Type,
			Nature:      account.Nature(),
			Level:       account.Level,
			PeriodStart: from,
			PeriodEnd:   to,
			DebitTotal:  money.Round2(acc.debit),
			CreditTotal: money.Round2(acc.credit),
			Net:         net(account.Nature(), acc),
		})
	}
	return rows, money.Round2(totalDebit), money.Round2(totalCredit), nil
}

func net(nature coa.Nature, acc accumulator) decimal.Decimal {
	if nature == coa.NatureDebit {
		return money.Round2(acc.debit.Sub(acc.credit))
	}
	return money.Round2(acc.credit.Sub(acc.debit))
}
