package statements

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/ledger"
	"github.com/quipu-ledger/quipu/internal/money"
	"github.com/quipu-ledger/quipu/internal/shared"
)

// ErrUnbalancedStatement indicates assets != liabilities + equity. It
// signals upstream journal corruption, not a user error; the statement is
// withheld rather than displayed wrong.
var ErrUnbalancedStatement = shared.Integrity(errors.New("statements: balance sheet equation violated"))

// BalanceSheet partitions balances as of a date. CurrentResult carries the
// unclosed period profit inside equity so the equation holds mid-year.
type BalanceSheet struct {
	AsOf time.Time

	Assets      Section
	Liabilities Section
	Equity      Section

	CurrentResult             decimal.Decimal
	TotalAssets               decimal.Decimal
	TotalLiabilities          decimal.Decimal
	TotalEquity               decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
}

// BuildBalanceSheet aggregates trial-balance rows into the three balance
// sheet sections and verifies the accounting equation.
func BuildBalanceSheet(rows []ledger.Balance, asOf time.Time) (BalanceSheet, error) {
	out := BalanceSheet{
		AsOf:        asOf,
		Assets:      Section{Label: "Activo"},
		Liabilities: Section{Label: "Pasivo"},
		Equity:      Section{Label: "Patrimonio"},
	}

	var income, expense decimal.Decimal
	for _, row := range rows {
		switch row.Type {
		case coa.TypeAsset, coa.TypeLiability, coa.TypeEquity:
			// Roots carry the full rollup; level-2 rows give the detail.
			if row.Level == 1 {
				switch row.Type {
				case coa.TypeAsset:
					out.TotalAssets = out.TotalAssets.Add(row.Net)
				case coa.TypeLiability:
					out.TotalLiabilities = out.TotalLiabilities.Add(row.Net)
				case coa.TypeEquity:
					out.TotalEquity = out.TotalEquity.Add(row.Net)
				}
			}
			if row.Level == 2 {
				item := LineItem{Code: row.AccountCode, Name: row.AccountName, Amount: row.Net}
				switch row.Type {
				case coa.TypeAsset:
					out.Assets.Accounts = append(out.Assets.Accounts, item)
					out.Assets.Total = out.Assets.Total.Add(item.Amount)
				case coa.TypeLiability:
					out.Liabilities.Accounts = append(out.Liabilities.Accounts, item)
					out.Liabilities.Total = out.Liabilities.Total.Add(item.Amount)
				case coa.TypeEquity:
					out.Equity.Accounts = append(out.Equity.Accounts, item)
					out.Equity.Total = out.Equity.Total.Add(item.Amount)
				}
			}
		case coa.TypeIncome:
			if row.Level == 1 {
				income = income.Add(row.Net)
			}
		case coa.TypeExpense:
			if row.Level == 1 {
				expense = expense.Add(row.Net)
			}
		}
	}

	// The period result is not yet closed to retained earnings, so it
	// enters equity as its own line.
	out.CurrentResult = money.Round2(income.Sub(expense))
	if !out.CurrentResult.IsZero() {
		out.Equity.Accounts = append(out.Equity.Accounts, LineItem{
			Code:   "3R",
			Name:   "Resultado del Ejercicio",
			Amount: out.CurrentResult,
		})
		out.Equity.Total = out.Equity.Total.Add(out.CurrentResult)
		out.TotalEquity = out.TotalEquity.Add(out.CurrentResult)
	}

	out.TotalAssets = money.Round2(out.TotalAssets)
	out.TotalLiabilities = money.Round2(out.TotalLiabilities)
	out.TotalEquity = money.Round2(out.TotalEquity)
	out.TotalLiabilitiesAndEquity = out.TotalLiabilities.Add(out.TotalEquity)

	if !money.WithinTolerance(out.TotalAssets, out.TotalLiabilitiesAndEquity) {
		return BalanceSheet{}, fmt.Errorf("%w: assets %s vs liabilities+equity %s",
			ErrUnbalancedStatement, out.TotalAssets.StringFixed(2), out.TotalLiabilitiesAndEquity.StringFixed(2))
	}
	return out, nil
}
