package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/money"
)

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// PostingInput groups fields required to post a journal entry. Number zero
// requests sequence assignment; ExternalRef links back to the originating
// business event and drives idempotent re-submission.
type PostingInput struct {
	Number      int64
	Date        time.Time
	Concept     string
	ExternalRef string
	Lines       []LineInput
}

// Validate ensures posting input meets minimum criteria before any state
// is touched.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit decimal.Decimal
	for _, line := range in.Lines {
		if line.AccountCode == "" {
			return ErrInvalidLine
		}
		if money.IsNegative(line.Debit) || money.IsNegative(line.Credit) {
			return ErrInvalidLine
		}
		debitSet := line.Debit.Sign() > 0
		creditSet := line.Credit.Sign() > 0
		if debitSet == creditSet {
			return ErrInvalidLine
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !money.WithinTolerance(debit, credit) {
		return ErrUnbalanced
	}
	return nil
}

// VoidInput wraps parameters for voiding a posted entry.
type VoidInput struct {
	EntryID uuid.UUID
	Reason  string
}

// Filter narrows Query results. Zero times mean an open bound.
type Filter struct {
	From        time.Time
	To          time.Time
	AccountCode string
}

// Matches reports whether the posted entry falls inside the filter.
func (f Filter) Matches(e Entry) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if f.AccountCode != "" {
		for _, line := range e.Lines {
			if line.AccountCode == f.AccountCode {
				return true
			}
		}
		return false
	}
	return true
}
