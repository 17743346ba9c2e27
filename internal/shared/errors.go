package shared

import "errors"

// Kind classifies ledger-core failures by remediation policy.
type Kind string

const (
	// KindValidation marks errors the caller can fix by correcting input.
	KindValidation Kind = "validation"
	// KindIntegrity marks invariant violations originating upstream.
	KindIntegrity Kind = "integrity"
	// KindConcurrency marks posting conflicts that survived the retry budget.
	KindConcurrency Kind = "concurrency"
	// KindConfiguration marks missing reference data such as FX rates.
	KindConfiguration Kind = "configuration"
	// KindNotFound marks lookups that matched nothing.
	KindNotFound Kind = "not_found"
	// KindUnknown is reported for errors outside the taxonomy.
	KindUnknown Kind = "unknown"
)

// KindedError attaches a Kind to a sentinel error.
type KindedError struct {
	kind Kind
	err  error
}

func (e *KindedError) Error() string { return e.err.Error() }

func (e *KindedError) Unwrap() error { return e.err }

// Kinded wraps err so KindOf can classify it.
func Kinded(kind Kind, err error) error {
	return &KindedError{kind: kind, err: err}
}

// Validation tags err as caller-recoverable.
func Validation(err error) error { return Kinded(KindValidation, err) }

// Integrity tags err as an upstream invariant violation.
func Integrity(err error) error { return Kinded(KindIntegrity, err) }

// Concurrency tags err as a posting conflict.
func Concurrency(err error) error { return Kinded(KindConcurrency, err) }

// Configuration tags err as missing reference data.
func Configuration(err error) error { return Kinded(KindConfiguration, err) }

// NotFound tags err as a failed lookup.
func NotFound(err error) error { return Kinded(KindNotFound, err) }

// KindOf reports the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var kinded *KindedError
	if errors.As(err, &kinded) {
		return kinded.kind
	}
	return KindUnknown
}
