package statements

// Category buckets an account into the income statement computation.
type Category string

const (
	CategoryRevenue          Category = "REVENUE"
	CategoryDirectCost       Category = "DIRECT_COST"
	CategoryOperatingExpense Category = "OPERATING_EXPENSE"
	CategoryTransactionTax   Category = "TRANSACTION_TAX"
	CategoryOtherIncome      Category = "OTHER_INCOME"
	CategoryOtherExpense     Category = "OTHER_EXPENSE"
	CategoryIncomeTax        Category = "INCOME_TAX"
)

// Rule maps an account-code prefix to a category and a display label.
type Rule struct {
	Prefix   string
	Category Category
	Label    string
}

// Classification is the prefix table supplied by the reporting
// configuration. It is collaborator input, not hardcoded logic: each
// company tunes it to its own chart.
type Classification struct {
	rules []Rule
}

// NewClassification builds a classification table.
func NewClassification(rules []Rule) Classification {
	return Classification{rules: rules}
}

// Classify returns the longest-prefix rule matching code.
func (c Classification) Classify(code string) (Rule, bool) {
	var best Rule
	found := false
	for _, rule := range c.rules {
		if len(rule.Prefix) > len(code) || code[:len(rule.Prefix)] != rule.Prefix {
			continue
		}
		if !found || len(rule.Prefix) > len(best.Prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

// DefaultClassification matches the default Bolivian chart.
func DefaultClassification() Classification {
	return NewClassification([]Rule{
		{Prefix: "41", Category: CategoryRevenue, Label: "Ventas de Productos"},
		{Prefix: "42", Category: CategoryRevenue, Label: "Ventas de Servicios"},
		{Prefix: "43", Category: CategoryOtherIncome, Label: "Otros Ingresos"},
		{Prefix: "51", Category: CategoryDirectCost, Label: "Costo de Ventas"},
		{Prefix: "52", Category: CategoryOperatingExpense, Label: "Gastos Operativos"},
		{Prefix: "53", Category: CategoryTransactionTax, Label: "Impuesto a las Transacciones"},
		{Prefix: "54", Category: CategoryOtherExpense, Label: "Otros Gastos"},
		{Prefix: "55", Category: CategoryIncomeTax, Label: "Impuesto sobre las Utilidades"},
	})
}
