package statements

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/ledger"
	"github.com/quipu-ledger/quipu/internal/money"
)

// LineItem is a single account row inside a statement section.
type LineItem struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// Section groups classified accounts under a display label.
type Section struct {
	Label    string
	Accounts []LineItem
	Total    decimal.Decimal
}

// IncomeStatement is derived purely from trial-balance rows; nothing here
// touches the journal.
type IncomeStatement struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	Revenue           []Section
	DirectCosts       Section
	OperatingExpenses Section
	TransactionTax    Section
	OtherIncome       Section
	OtherExpenses     Section
	IncomeTax         Section

	// Unclassified carries income and expense activity no rule covers.
	// Amounts are signed contributions to the result, income positive
	// and expense negative, and the total folds into NetProfit so the
	// statement never drops activity.
	Unclassified Section

	TotalRevenue    decimal.Decimal
	GrossProfit     decimal.Decimal
	OperatingProfit decimal.Decimal
	ProfitBeforeTax decimal.Decimal
	NetProfit       decimal.Decimal
}

// BuildIncomeStatement partitions income and expense balances by the
// classification table and computes the profit cascade. A row only counts
// when its parent falls outside the same rule, so a classified group
// account carries its whole rollup and its descendants are not counted
// twice.
func BuildIncomeStatement(rows []ledger.Balance, cls Classification) IncomeStatement {
	sections := make(map[Category]map[string]*Section)
	add := func(rule Rule, row ledger.Balance) {
		byLabel, ok := sections[rule.Category]
		if !ok {
			byLabel = make(map[string]*Section)
			sections[rule.Category] = byLabel
		}
		section, ok := byLabel[rule.Label]
		if !ok {
			section = &Section{Label: rule.Label}
			byLabel[rule.Label] = section
		}
		section.Accounts = append(section.Accounts, LineItem{Code: row.AccountCode, Name: row.AccountName, Amount: row.Net})
		section.Total = section.Total.Add(row.Net)
	}

	for _, row := range rows {
		rule, ok := cls.Classify(row.AccountCode)
		if !ok {
			continue
		}
		if row.ParentCode != "" {
			if parentRule, ok := cls.Classify(row.ParentCode); ok && parentRule == rule {
				continue
			}
		}
		add(rule, row)
	}
	unclassified := collectUnclassified(rows, cls)

	out := IncomeStatement{}
	for _, section := range flatten(sections[CategoryRevenue]) {
		out.Revenue = append(out.Revenue, section)
		out.TotalRevenue = out.TotalRevenue.Add(section.Total)
	}
	out.DirectCosts = single(sections[CategoryDirectCost], "Costo de Ventas")
	out.OperatingExpenses = single(sections[CategoryOperatingExpense], "Gastos Operativos")
	out.TransactionTax = single(sections[CategoryTransactionTax], "Impuesto a las Transacciones")
	out.OtherIncome = single(sections[CategoryOtherIncome], "Otros Ingresos")
	out.OtherExpenses = single(sections[CategoryOtherExpense], "Otros Gastos")
	out.IncomeTax = single(sections[CategoryIncomeTax], "Impuesto sobre las Utilidades")

	out.Unclassified = unclassified

	out.GrossProfit = money.Round2(out.TotalRevenue.Sub(out.DirectCosts.Total))
	out.OperatingProfit = money.Round2(out.GrossProfit.Sub(out.OperatingExpenses.Total).Sub(out.TransactionTax.Total))
	out.ProfitBeforeTax = money.Round2(out.OperatingProfit.Add(out.OtherIncome.Total).Sub(out.OtherExpenses.Total))
	out.NetProfit = money.Round2(out.ProfitBeforeTax.Sub(out.IncomeTax.Total).Add(out.Unclassified.Total))
	return out
}

// collectUnclassified gathers income and expense rollups the rule table
// misses. Each wholly uncovered subtree is reported once at its highest
// account, so a group row carries its descendants and a mixed parent like
// the income root never double counts its classified children.
func collectUnclassified(rows []ledger.Balance, cls Classification) Section {
	index := make(map[string]int, len(rows))
	children := make(map[string][]string)
	for i, row := range rows {
		index[row.AccountCode] = i
		if row.ParentCode != "" {
			children[row.ParentCode] = append(children[row.ParentCode], row.AccountCode)
		}
	}

	pure := make(map[string]bool, len(rows))
	var isPure func(code string) bool
	isPure = func(code string) bool {
		if cached, ok := pure[code]; ok {
			return cached
		}
		pure[code] = false
		if _, classified := cls.Classify(code); classified {
			return false
		}
		for _, child := range children[code] {
			if !isPure(child) {
				return false
			}
		}
		pure[code] = true
		return true
	}

	section := Section{Label: "Sin Clasificar"}
	for _, row := range rows {
		if row.Type != coa.TypeIncome && row.Type != coa.TypeExpense {
			continue
		}
		if !isPure(row.AccountCode) {
			continue
		}
		if row.ParentCode != "" {
			if _, hasParentRow := index[row.ParentCode]; hasParentRow && isPure(row.ParentCode) {
				continue
			}
		}
		amount := row.Net
		if row.Type == coa.TypeExpense {
			amount = amount.Neg()
		}
		section.Accounts = append(section.Accounts, LineItem{Code: row.AccountCode, Name: row.AccountName, Amount: amount})
		section.Total = section.Total.Add(amount)
	}
	sortItems(section.Accounts)
	section.Total = money.Round2(section.Total)
	return section
}

func flatten(byLabel map[string]*Section) []Section {
	out := make([]Section, 0, len(byLabel))
	for _, section := range byLabel {
		sortItems(section.Accounts)
		out = append(out, *section)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// single merges every label of a category into one section; the split by
// label only matters for revenue display.
func single(byLabel map[string]*Section, label string) Section {
	merged := Section{Label: label}
	for _, section := range flatten(byLabel) {
		merged.Accounts = append(merged.Accounts, section.Accounts...)
		merged.Total = merged.Total.Add(section.Total)
	}
	sortItems(merged.Accounts)
	return merged
}

func sortItems(items []LineItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
}
