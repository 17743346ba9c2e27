package journal

import (
	"errors"

	"github.com/quipu-ledger/quipu/internal/shared"
)

var (
	// ErrUnbalanced indicates sum(debit) != sum(credit) beyond tolerance.
	ErrUnbalanced = shared.Validation(errors.New("journal: entry lines must balance"))
	// ErrTooFewLines indicates fewer than two lines.
	ErrTooFewLines = shared.Validation(errors.New("journal: entry requires at least two lines"))
	// ErrInvalidLine indicates a line with both sides set, both zero, or a negative amount.
	ErrInvalidLine = shared.Validation(errors.New("journal: line must carry exactly one positive side"))
	// ErrDuplicateNumber indicates the requested sequence number is taken.
	ErrDuplicateNumber = shared.Validation(errors.New("journal: duplicate entry number"))
	// ErrNotFound indicates the entry does not exist.
	ErrNotFound = shared.NotFound(errors.New("journal: entry not found"))
	// ErrAlreadyVoided indicates a second void attempt.
	ErrAlreadyVoided = shared.Validation(errors.New("journal: entry already voided"))
	// ErrNotPosted indicates the entry is not in a voidable state.
	ErrNotPosted = shared.Validation(errors.New("journal: entry is not posted"))
	// ErrNumberConflict is returned by repositories when a concurrent
	// posting claimed the same sequence number. The service retries.
	ErrNumberConflict = shared.Concurrency(errors.New("journal: sequence number conflict"))
	// ErrConcurrentConflict is surfaced after the retry budget is spent.
	ErrConcurrentConflict = shared.Concurrency(errors.New("journal: concurrent posting conflict"))
	// ErrStorageTimeout wraps storage deadline expiry; callers may retry.
	ErrStorageTimeout = shared.Concurrency(errors.New("journal: storage timeout"))
)
