package consol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/platform/db"
)

// PgRepository persists consolidation state in Postgres. Snapshots are
// immutable and stored as JSONB; flagging eliminated transactions and
// storing the snapshot share one transaction.
type PgRepository struct {
	db *pgxpool.Pool
}

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) ListEntities(ctx context.Context) ([]Entity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, role, ownership_percent::text, currency, fx_rate_to_base::text
		   FROM consolidation_entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("consol: list entities: %w", err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var (
			entity    Entity
			ownership string
			rate      *string
		)
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Role, &ownership, &entity.Currency, &rate); err != nil {
			return nil, fmt.Errorf("consol: scan entity: %w", err)
		}
		if entity.OwnershipPercent, err = decimal.NewFromString(ownership); err != nil {
			return nil, fmt.Errorf("consol: ownership %q: %w", ownership, err)
		}
		if rate != nil {
			parsed, err := decimal.NewFromString(*rate)
			if err != nil {
				return nil, fmt.Errorf("consol: fx rate %q: %w", *rate, err)
			}
			entity.FxRateToBase = &parsed
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListTransactions(ctx context.Context, periodStart, periodEnd time.Time) ([]Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, origin_entity, destination_entity, account_code, amount::text, txn_date, eliminated
		   FROM intercompany_transactions
		  WHERE txn_date >= $1 AND txn_date <= $2
		  ORDER BY txn_date, id`, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("consol: list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			txn    Transaction
			amount string
		)
		if err := rows.Scan(&txn.ID, &txn.OriginEntity, &txn.DestinationEntity, &txn.AccountCode, &amount, &txn.Date, &txn.Eliminated); err != nil {
			return nil, fmt.Errorf("consol: scan transaction: %w", err)
		}
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("consol: amount %q: %w", amount, err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (r *PgRepository) EntityBalances(ctx context.Context, entityID string, periodStart, periodEnd time.Time) (EntityBalances, error) {
	rows, err := r.db.Query(ctx,
		`SELECT statement, account_code, account_name, amount::text
		   FROM entity_balances
		  WHERE entity_id = $1 AND period_start = $2 AND period_end = $3
		  ORDER BY account_code`, entityID, periodStart, periodEnd)
	if err != nil {
		return EntityBalances{}, fmt.Errorf("consol: entity balances: %w", err)
	}
	defer rows.Close()

	var balances EntityBalances
	for rows.Next() {
		var (
			statement string
			line      Line
			amount    string
		)
		if err := rows.Scan(&statement, &line.AccountCode, &line.AccountName, &amount); err != nil {
			return EntityBalances{}, fmt.Errorf("consol: scan balance: %w", err)
		}
		if line.Amount, err = decimal.NewFromString(amount); err != nil {
			return EntityBalances{}, fmt.Errorf("consol: balance amount %q: %w", amount, err)
		}
		switch statement {
		case "BS":
			balances.BalanceSheet = append(balances.BalanceSheet, line)
			if len(line.AccountCode) > 0 && line.AccountCode[0] == '1' {
				balances.AssetTotal = balances.AssetTotal.Add(line.Amount)
			}
		case "IS":
			balances.IncomeStatement = append(balances.IncomeStatement, line)
		}
	}
	return balances, rows.Err()
}

func (r *PgRepository) RecordRun(ctx context.Context, snapshot Snapshot, eliminatedIDs []uuid.UUID) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("consol: marshal snapshot: %w", err)
	}
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO consolidation_snapshots (id, period_start, period_end, generated_at, base_currency, payload)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			snapshot.ID, snapshot.PeriodStart, snapshot.PeriodEnd, snapshot.GeneratedAt, snapshot.BaseCurrency, payload)
		if err != nil {
			return fmt.Errorf("consol: insert snapshot: %w", err)
		}
		if len(eliminatedIDs) > 0 {
			_, err = tx.Exec(ctx,
				`UPDATE intercompany_transactions SET eliminated = TRUE WHERE id = ANY($1)`, eliminatedIDs)
			if err != nil {
				return fmt.Errorf("consol: flag eliminated: %w", err)
			}
		}
		return nil
	})
}

func (r *PgRepository) GetSnapshot(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM consolidation_snapshots WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("consol: get snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("consol: decode snapshot: %w", err)
	}
	return snapshot, nil
}

func (r *PgRepository) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT payload FROM consolidation_snapshots ORDER BY generated_at`)
	if err != nil {
		return nil, fmt.Errorf("consol: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("consol: scan snapshot: %w", err)
		}
		var snapshot Snapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, fmt.Errorf("consol: decode snapshot: %w", err)
		}
		out = append(out, snapshot)
	}
	return out, rows.Err()
}
