package coa

// Type enumerates chart-of-accounts categories.
type Type string

const (
	TypeAsset     Type = "ASSET"
	TypeLiability Type = "LIABILITY"
	TypeEquity    Type = "EQUITY"
	TypeIncome    Type = "INCOME"
	TypeExpense   Type = "EXPENSE"
)

// Nature states whether increases post as debits or credits.
type Nature string

const (
	NatureDebit  Nature = "DEBIT"
	NatureCredit Nature = "CREDIT"
)

// Nature returns the fixed nature for the account type.
func (t Type) Nature() Nature {
	switch t {
	case TypeAsset, TypeExpense:
		return NatureDebit
	default:
		return NatureCredit
	}
}

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. Codes follow the Bolivian
// hierarchical prefix scheme ("1", "11", "111", "1111").
type Account struct {
	Code       string
	Name       string
	Type       Type
	ParentCode string
	Level      int
}

// Nature returns the posting nature derived from the account type.
func (a Account) Nature() Nature {
	return a.Type.Nature()
}
