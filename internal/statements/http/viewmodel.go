package http

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/quipu-ledger/quipu/internal/ledger"
	"github.com/quipu-ledger/quipu/internal/statements"
)

// Amounts are rendered twice: a machine-readable fixed-point string and a
// locale-formatted display value for the UI collaborators.
var amountPrinter = message.NewPrinter(language.EuropeanSpanish)

func formatAmount(value decimal.Decimal) string {
	f, _ := value.Round(2).Float64()
	return amountPrinter.Sprintf("%.2f", f)
}

type amountVM struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

func toAmountVM(value decimal.Decimal) amountVM {
	return amountVM{Value: value.StringFixed(2), Display: formatAmount(value)}
}

type balanceRowVM struct {
	AccountCode string   `json:"accountCode"`
	AccountName string   `json:"accountName"`
	Level       int      `json:"level"`
	DebitTotal  amountVM `json:"debitTotal"`
	CreditTotal amountVM `json:"creditTotal"`
	Net         amountVM `json:"net"`
}

type trialBalanceVM struct {
	AsOf        string         `json:"asOf"`
	Rows        []balanceRowVM `json:"rows"`
	TotalDebit  amountVM       `json:"totalDebit"`
	TotalCredit amountVM       `json:"totalCredit"`
}

func toTrialBalanceVM(tb ledger.TrialBalance) trialBalanceVM {
	out := trialBalanceVM{
		AsOf:        tb.AsOf.Format(dateLayout),
		Rows:        make([]balanceRowVM, 0, len(tb.Rows)),
		TotalDebit:  toAmountVM(tb.TotalDebit),
		TotalCredit: toAmountVM(tb.TotalCredit),
	}
	for _, row := range tb.Rows {
		out.Rows = append(out.Rows, balanceRowVM{
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			Level:       row.Level,
			DebitTotal:  toAmountVM(row.DebitTotal),
			CreditTotal: toAmountVM(row.CreditTotal),
			Net:         toAmountVM(row.Net),
		})
	}
	return out
}

type lineItemVM struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Amount amountVM `json:"amount"`
}

type sectionVM struct {
	Label    string       `json:"label"`
	Accounts []lineItemVM `json:"accounts"`
	Total    amountVM     `json:"total"`
}

func toSectionVM(s statements.Section) sectionVM {
	out := sectionVM{Label: s.Label, Total: toAmountVM(s.Total)}
	for _, item := range s.Accounts {
		out.Accounts = append(out.Accounts, lineItemVM{
			Code:   item.Code,
			Name:   item.Name,
			Amount: toAmountVM(item.Amount),
		})
	}
	return out
}

type incomeStatementVM struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`

	Revenue           []sectionVM `json:"revenue"`
	DirectCosts       sectionVM   `json:"directCosts"`
	OperatingExpenses sectionVM   `json:"operatingExpenses"`
	TransactionTax    sectionVM   `json:"transactionTax"`
	OtherIncome       sectionVM   `json:"otherIncome"`
	OtherExpenses     sectionVM   `json:"otherExpenses"`
	IncomeTax         sectionVM   `json:"incomeTax"`
	Unclassified      sectionVM   `json:"unclassified"`

	TotalRevenue    amountVM `json:"totalRevenue"`
	GrossProfit     amountVM `json:"grossProfit"`
	OperatingProfit amountVM `json:"operatingProfit"`
	ProfitBeforeTax amountVM `json:"profitBeforeTax"`
	NetProfit       amountVM `json:"netProfit"`
}

func toIncomeStatementVM(is statements.IncomeStatement) incomeStatementVM {
	out := incomeStatementVM{
		PeriodStart:       is.PeriodStart.Format(dateLayout),
		PeriodEnd:         is.PeriodEnd.Format(dateLayout),
		DirectCosts:       toSectionVM(is.DirectCosts),
		OperatingExpenses: toSectionVM(is.OperatingExpenses),
		TransactionTax:    toSectionVM(is.TransactionTax),
		OtherIncome:       toSectionVM(is.OtherIncome),
		OtherExpenses:     toSectionVM(is.OtherExpenses),
		IncomeTax:         toSectionVM(is.IncomeTax),
		Unclassified:      toSectionVM(is.Unclassified),
		TotalRevenue:      toAmountVM(is.TotalRevenue),
		GrossProfit:       toAmountVM(is.GrossProfit),
		OperatingProfit:   toAmountVM(is.OperatingProfit),
		ProfitBeforeTax:   toAmountVM(is.ProfitBeforeTax),
		NetProfit:         toAmountVM(is.NetProfit),
	}
	for _, section := range is.Revenue {
		out.Revenue = append(out.Revenue, toSectionVM(section))
	}
	return out
}

type balanceSheetVM struct {
	AsOf string `json:"asOf"`

	Assets      sectionVM `json:"assets"`
	Liabilities sectionVM `json:"liabilities"`
	Equity      sectionVM `json:"equity"`

	CurrentResult             amountVM `json:"currentResult"`
	TotalAssets               amountVM `json:"totalAssets"`
	TotalLiabilities          amountVM `json:"totalLiabilities"`
	TotalEquity               amountVM `json:"totalEquity"`
	TotalLiabilitiesAndEquity amountVM `json:"totalLiabilitiesAndEquity"`
}

func toBalanceSheetVM(bs statements.BalanceSheet) balanceSheetVM {
	return balanceSheetVM{
		AsOf:                      bs.AsOf.Format(dateLayout),
		Assets:                    toSectionVM(bs.Assets),
		Liabilities:               toSectionVM(bs.Liabilities),
		Equity:                    toSectionVM(bs.Equity),
		CurrentResult:             toAmountVM(bs.CurrentResult),
		TotalAssets:               toAmountVM(bs.TotalAssets),
		TotalLiabilities:          toAmountVM(bs.TotalLiabilities),
		TotalEquity:               toAmountVM(bs.TotalEquity),
		TotalLiabilitiesAndEquity: toAmountVM(bs.TotalLiabilitiesAndEquity),
	}
}
