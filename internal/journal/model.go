package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the entry lifecycle. Posted entries are immutable;
// corrections happen through reversing entries, never edits.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
	StatusVoided Status = "VOIDED"
)

// Entry captures a posted journal entry and its lines.
type Entry struct {
	ID          uuid.UUID
	Number      int64
	Date        time.Time
	Concept     string
	ExternalRef string
	Status      Status
	Lines       []Line
	ReversalOf  *uuid.UUID
	ReversedBy  *uuid.UUID
	VoidReason  string
	PostedAt    time.Time
}

// Line stores a debit or credit amount against an account. Exactly one of
// Debit/Credit is non-zero on a valid line.
type Line struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Totals returns the summed debit and credit sides of the entry.
func (e Entry) Totals() (debit, credit decimal.Decimal) {
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// IsReversal reports whether the entry reverses another one.
func (e Entry) IsReversal() bool {
	return e.ReversalOf != nil
}
