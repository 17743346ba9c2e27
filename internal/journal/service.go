package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/money"
	"github.com/quipu-ledger/quipu/internal/shared"
)

// maxPostingRetries bounds optimistic retries on sequence conflicts.
const maxPostingRetries = 3

// AccountResolver validates account codes against the chart.
type AccountResolver interface {
	Resolve(ctx context.Context, code string) (coa.Account, error)
}

// AuditPort records posting activity.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics counts posting outcomes.
type Metrics interface {
	EntryPosted()
	EntryVoided()
}

// Service owns the journal entry lifecycle. All mutation flows through
// Submit and Void; everything downstream only reads posted entries.
type Service struct {
	repo     Repository
	accounts AccountResolver
	audit    AuditPort
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the journal engine.
func NewService(repo Repository, accounts AccountResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, accounts: accounts, logger: logger, now: time.Now}
}

// WithAudit attaches an audit recorder.
func (s *Service) WithAudit(audit AuditPort) *Service {
	s.audit = audit
	return s
}

// WithMetrics attaches posting counters.
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Submit validates input and posts it as an immutable entry. Re-submitting
// an external reference that already posted returns the original entry
// unchanged, so retried business events never double-post.
func (s *Service) Submit(ctx context.Context, input PostingInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	for _, line := range input.Lines {
		if _, err := s.accounts.Resolve(ctx, line.AccountCode); err != nil {
			return Entry{}, err
		}
	}

	for attempt := 0; attempt < maxPostingRetries; attempt++ {
		var entry Entry
		var reused bool
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if input.ExternalRef != "" {
				existing, err := tx.GetByExternalRef(ctx, input.ExternalRef)
				switch {
				case err == nil && existing.Status == StatusPosted:
					entry = existing
					reused = true
					return nil
				case err != nil && !errors.Is(err, ErrNotFound):
					return err
				}
			}
			number := input.Number
			if number == 0 {
				next, err := tx.NextNumber(ctx)
				if err != nil {
					return err
				}
				number = next
			} else {
				taken, err := tx.NumberExists(ctx, number)
				if err != nil {
					return err
				}
				if taken {
					return ErrDuplicateNumber
				}
			}
			entry = Entry{
				ID:          uuid.New(),
				Number:      number,
				Date:        input.Date,
				Concept:     input.Concept,
				ExternalRef: input.ExternalRef,
				Status:      StatusPosted,
				Lines:       toLines(input.Lines),
				PostedAt:    s.now(),
			}
			return tx.Insert(ctx, entry)
		})
		if errors.Is(err, ErrNumberConflict) && input.Number == 0 {
			s.logger.Warn("posting sequence conflict, retrying", slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return Entry{}, mapStorageErr(err)
		}
		if reused {
			s.logger.Info("idempotent re-submission",
				slog.String("external_ref", input.ExternalRef),
				slog.Int64("number", entry.Number))
			return entry, nil
		}
		s.recordPosted(ctx, entry)
		return entry, nil
	}
	return Entry{}, ErrConcurrentConflict
}

// Void marks a posted entry voided and appends a balancing reversal whose
// lines swap debit and credit. Posted lines are never mutated.
func (s *Service) Void(ctx context.Context, input VoidInput) (Entry, error) {
	if input.EntryID == uuid.Nil {
		return Entry{}, ErrNotFound
	}
	for attempt := 0; attempt < maxPostingRetries; attempt++ {
		var reversal Entry
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			original, err := tx.Get(ctx, input.EntryID)
			if err != nil {
				return err
			}
			if original.Status == StatusVoided {
				return ErrAlreadyVoided
			}
			if original.Status != StatusPosted {
				return ErrNotPosted
			}
			number, err := tx.NextNumber(ctx)
			if err != nil {
				return err
			}
			originalID := original.ID
			reversal = Entry{
				ID:         uuid.New(),
				Number:     number,
				Date:       original.Date,
				Concept:    reversalConcept(original.Number, input.Reason),
				Status:     StatusPosted,
				Lines:      reverseLines(original.Lines),
				ReversalOf: &originalID,
				PostedAt:   s.now(),
			}
			if err := tx.Insert(ctx, reversal); err != nil {
				return err
			}
			return tx.MarkVoided(ctx, original.ID, reversal.ID, input.Reason)
		})
		if errors.Is(err, ErrNumberConflict) {
			continue
		}
		if err != nil {
			return Entry{}, mapStorageErr(err)
		}
		if s.metrics != nil {
			s.metrics.EntryVoided()
		}
		if s.audit != nil {
			_ = s.audit.Record(ctx, shared.AuditLog{
				Action:   "journal.void",
				Entity:   "journal_entry",
				EntityID: input.EntryID.String(),
				Meta:     map[string]any{"reason": input.Reason, "reversal_number": reversal.Number},
				At:       s.now(),
			})
		}
		return reversal, nil
	}
	return Entry{}, ErrConcurrentConflict
}

// Query returns entries matching filter ordered by number ascending.
func (s *Service) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return entries, nil
}

// Get returns a single entry by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, mapStorageErr(err)
	}
	return entry, nil
}

// HasPostings reports whether any line references the account code.
func (s *Service) HasPostings(ctx context.Context, accountCode string) (bool, error) {
	return s.repo.HasPostings(ctx, accountCode)
}

func (s *Service) recordPosted(ctx context.Context, entry Entry) {
	debit, _ := entry.Totals()
	s.logger.Info("journal entry posted",
		slog.Int64("number", entry.Number),
		slog.String("concept", entry.Concept),
		slog.String("total", debit.StringFixed(2)))
	if s.metrics != nil {
		s.metrics.EntryPosted()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: entry.ID.String(),
			Meta:     map[string]any{"number": entry.Number, "external_ref": entry.ExternalRef},
			At:       s.now(),
		})
	}
}

func toLines(inputs []LineInput) []Line {
	out := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Line{
			AccountCode: in.AccountCode,
			Debit:       money.Round2(in.Debit),
			Credit:      money.Round2(in.Credit),
		})
	}
	return out
}

func reverseLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
		})
	}
	return out
}

func reversalConcept(number int64, reason string) string {
	if reason != "" {
		return fmt.Sprintf("Reversión de asiento %d: %s", number, reason)
	}
	return fmt.Sprintf("Reversión de asiento %d", number)
}

func mapStorageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStorageTimeout
	}
	return err
}
