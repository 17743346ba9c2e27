package coa

import (
	"errors"

	"github.com/quipu-ledger/quipu/internal/shared"
)

var (
	// ErrDuplicateCode indicates the account code is already registered.
	ErrDuplicateCode = shared.Validation(errors.New("coa: duplicate account code"))
	// ErrInvalidParent indicates a missing or type-incompatible parent.
	ErrInvalidParent = shared.Validation(errors.New("coa: invalid parent account"))
	// ErrInvalidNature indicates the nature contradicts the account type.
	ErrInvalidNature = shared.Validation(errors.New("coa: nature contradicts account type"))
	// ErrUnknownAccount indicates the code resolves to nothing.
	ErrUnknownAccount = shared.NotFound(errors.New("coa: unknown account"))
	// ErrHasChildren blocks deletion of accounts with descendants.
	ErrHasChildren = shared.Validation(errors.New("coa: account has children"))
	// ErrHasPostings blocks deletion of accounts referenced by journal lines.
	ErrHasPostings = shared.Validation(errors.New("coa: account has postings"))
)
