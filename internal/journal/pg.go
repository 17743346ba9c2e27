package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/platform/db"
)

// PgRepository persists the journal in Postgres. Sequence reservation
// locks the journal_sequence row, so concurrent postings serialise on the
// number assignment and nothing else.
type PgRepository struct {
	db *pgxpool.Pool
}

// NewPgRepository returns a Postgres-backed journal repository.
func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

type pgTx struct {
	tx pgx.Tx
}

func (r *PgRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

// NextNumber reserves the next free number. Numbers taken by explicit
// postings ahead of the sequence are skipped, matching the in-memory
// repository; without the skip the reservation would collide with the
// same taken number on every retry. The first UPDATE locks the sequence
// row for the rest of the transaction.
func (t *pgTx) NextNumber(ctx context.Context) (int64, error) {
	for {
		var next int64
		err := t.tx.QueryRow(ctx,
			`UPDATE journal_sequence SET next_number = next_number + 1 WHERE id = 1 RETURNING next_number - 1`).
			Scan(&next)
		if err != nil {
			return 0, fmt.Errorf("journal: reserve number: %w", err)
		}
		taken, err := t.NumberExists(ctx, next)
		if err != nil {
			return 0, fmt.Errorf("journal: reserve number: %w", err)
		}
		if !taken {
			return next, nil
		}
	}
}

func (t *pgTx) NumberExists(ctx context.Context, number int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE number = $1)`, number).Scan(&exists)
	return exists, err
}

func (t *pgTx) GetByExternalRef(ctx context.Context, ref string) (Entry, error) {
	return getByExternalRef(ctx, t.tx, ref)
}

func (t *pgTx) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	return getEntry(ctx, t.tx, id)
}

func (t *pgTx) Insert(ctx context.Context, entry Entry) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO journal_entries (id, number, entry_date, concept, external_ref, status, reversal_of, void_reason, posted_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`,
		entry.ID, entry.Number, entry.Date, entry.Concept, entry.ExternalRef, entry.Status, entry.ReversalOf, entry.VoidReason, entry.PostedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNumberConflict
		}
		return err
	}
	for idx, line := range entry.Lines {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO journal_lines (entry_id, position, account_code, debit, credit) VALUES ($1, $2, $3, $4, $5)`,
			entry.ID, idx, line.AccountCode, line.Debit, line.Credit)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) MarkVoided(ctx context.Context, id uuid.UUID, reversalID uuid.UUID, reason string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE journal_entries SET status = $2, reversed_by = $3, void_reason = $4 WHERE id = $1`,
		id, StatusVoided, reversalID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	return getEntry(ctx, r.db, id)
}

func (r *PgRepository) GetByExternalRef(ctx context.Context, ref string) (Entry, error) {
	return getByExternalRef(ctx, r.db, ref)
}

func (r *PgRepository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT id, number, entry_date, concept, COALESCE(external_ref, ''), status, reversal_of, reversed_by, COALESCE(void_reason, ''), posted_at
		FROM journal_entries WHERE 1=1`
	args := make([]any, 0, 3)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND entry_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND entry_date <= $%d", len(args))
	}
	if filter.AccountCode != "" {
		args = append(args, filter.AccountCode)
		query += fmt.Sprintf(" AND id IN (SELECT entry_id FROM journal_lines WHERE account_code = $%d)", len(args))
	}
	query += " ORDER BY number"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Number, &e.Date, &e.Concept, &e.ExternalRef, &e.Status, &e.ReversalOf, &e.ReversedBy, &e.VoidReason, &e.PostedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		lines, err := loadLines(ctx, r.db, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

func (r *PgRepository) HasPostings(ctx context.Context, accountCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_code = $1)`, accountCode).Scan(&exists)
	return exists, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntry(ctx context.Context, q querier, id uuid.UUID) (Entry, error) {
	var e Entry
	err := q.QueryRow(ctx,
		`SELECT id, number, entry_date, concept, COALESCE(external_ref, ''), status, reversal_of, reversed_by, COALESCE(void_reason, ''), posted_at
		 FROM journal_entries WHERE id = $1`, id).
		Scan(&e.ID, &e.Number, &e.Date, &e.Concept, &e.ExternalRef, &e.Status, &e.ReversalOf, &e.ReversedBy, &e.VoidReason, &e.PostedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	lines, err := loadLines(ctx, q, id)
	if err != nil {
		return Entry{}, err
	}
	e.Lines = lines
	return e, nil
}

func getByExternalRef(ctx context.Context, q querier, ref string) (Entry, error) {
	if ref == "" {
		return Entry{}, ErrNotFound
	}
	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM journal_entries WHERE external_ref = $1`, ref).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return getEntry(ctx, q, id)
}

func loadLines(ctx context.Context, q querier, entryID uuid.UUID) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT account_code, debit::text, credit::text FROM journal_lines WHERE entry_id = $1 ORDER BY position`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var code, debit, credit string
		if err := rows.Scan(&code, &debit, &credit); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(debit)
		if err != nil {
			return nil, err
		}
		c, err := decimal.NewFromString(credit)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{AccountCode: code, Debit: d, Credit: c})
	}
	return lines, rows.Err()
}
