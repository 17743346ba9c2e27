package consol

import (
	"errors"

	"github.com/quipu-ledger/quipu/internal/shared"
)

var (
	// ErrNoEntities indicates a run without participating entities.
	ErrNoEntities = shared.Validation(errors.New("consol: run requires at least one entity"))
	// ErrMissingExchangeRate flags an entity without an FX rate. The
	// entity is excluded and reported; the run never falls back to 1.
	ErrMissingExchangeRate = shared.Configuration(errors.New("consol: missing exchange rate"))
	// ErrEliminationTargetNotFound flags an intercompany transaction
	// whose account is absent from the merged statements.
	ErrEliminationTargetNotFound = shared.Configuration(errors.New("consol: elimination target account not found"))
	// ErrSnapshotNotFound indicates the requested snapshot is missing.
	ErrSnapshotNotFound = shared.NotFound(errors.New("consol: snapshot not found"))
)
