package consol

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role describes how an entity participates in the group. Associate is
// reserved for a future equity-method path; today every role consolidates
// proportionally by ownership.
type Role string

const (
	RoleParent     Role = "PARENT"
	RoleSubsidiary Role = "SUBSIDIARY"
	RoleAssociate  Role = "ASSOCIATE"
)

// Entity is a consolidation group member. FxRateToBase nil means the rate
// is missing; the engine excludes the entity and flags it rather than
// assuming a rate of one.
type Entity struct {
	ID               string
	Name             string
	Role             Role
	OwnershipPercent decimal.Decimal
	Currency         string
	FxRateToBase     *decimal.Decimal
}

// Transaction is an intercompany movement pending elimination.
type Transaction struct {
	ID                uuid.UUID
	OriginEntity      string
	DestinationEntity string
	AccountCode       string
	Amount            decimal.Decimal
	Date              time.Time
	Eliminated        bool
}

// Line is one statement row in the entity's local currency.
type Line struct {
	AccountCode string
	AccountName string
	Amount      decimal.Decimal
}

// EntityBalances carries one entity's statements for the period.
type EntityBalances struct {
	BalanceSheet    []Line
	IncomeStatement []Line
	// AssetTotal is the entity's unconsolidated asset total, used by the
	// consolidation sanity check.
	AssetTotal decimal.Decimal
}

// ConsolidatedAccount merges one account code across the group.
type ConsolidatedAccount struct {
	Code         string                     `json:"code"`
	Name         string                     `json:"name"`
	PerEntity    map[string]decimal.Decimal `json:"perEntity"`
	Eliminations decimal.Decimal            `json:"eliminations"`
	Consolidated decimal.Decimal            `json:"consolidated"`
}

// AppliedElimination records one elimination inside a snapshot.
type AppliedElimination struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	AccountCode   string          `json:"accountCode"`
	Amount        decimal.Decimal `json:"amount"`
}

// ExcludedEntity flags a group member left out of a run.
type ExcludedEntity struct {
	EntityID string `json:"entityId"`
	Reason   string `json:"reason"`
}

// SkippedTransaction flags an elimination that could not be applied.
type SkippedTransaction struct {
	TransactionID uuid.UUID `json:"transactionId"`
	AccountCode   string    `json:"accountCode"`
	Reason        string    `json:"reason"`
}

// Snapshot is the immutable output of a consolidation run. The struct is
// stored verbatim as the snapshot payload, so field tags are part of the
// stored format.
type Snapshot struct {
	ID           uuid.UUID `json:"id"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`
	GeneratedAt  time.Time `json:"generatedAt"`
	BaseCurrency string    `json:"baseCurrency"`

	BalanceSheet    []ConsolidatedAccount `json:"balanceSheet"`
	IncomeStatement []ConsolidatedAccount `json:"incomeStatement"`

	Eliminations []AppliedElimination `json:"eliminations"`
	Excluded     []ExcludedEntity     `json:"excludedEntities,omitempty"`
	Skipped      []SkippedTransaction `json:"skippedTransactions,omitempty"`

	TotalAssets          decimal.Decimal `json:"totalAssets"`
	TotalLiabSideBalance decimal.Decimal `json:"totalLiabilitiesAndEquity"`
	// MemberAssetTotal sums the included entities' unconsolidated assets
	// after translation and ownership scaling. Eliminations only remove
	// value, so TotalAssets never exceeds it.
	MemberAssetTotal decimal.Decimal `json:"memberAssetTotal"`
	Balanced         bool            `json:"balanced"`
}

// RunInput gathers everything one consolidation run needs.
type RunInput struct {
	PeriodStart  time.Time
	PeriodEnd    time.Time
	BaseCurrency string
	Entities     []Entity
	Transactions []Transaction
}
