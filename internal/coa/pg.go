package coa

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	db *pgxpool.Pool
}

// NewPgRepository returns a Postgres-backed chart repository.
func NewPgRepository(db *pgxpool.Pool) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) GetAccount(ctx context.Context, code string) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT code, name, type, COALESCE(parent_code, ''), level FROM accounts WHERE code = $1`, code).
		Scan(&a.Code, &a.Name, &a.Type, &a.ParentCode, &a.Level)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrUnknownAccount
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *pgRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT code, name, type, COALESCE(parent_code, ''), level FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *pgRepository) ListChildren(ctx context.Context, code string) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT code, name, type, COALESCE(parent_code, ''), level FROM accounts WHERE parent_code = $1 ORDER BY code`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *pgRepository) SaveAccount(ctx context.Context, account Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (code, name, type, parent_code, level) VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
		account.Code, account.Name, account.Type, account.ParentCode, account.Level)
	return err
}

func (r *pgRepository) DeleteAccount(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownAccount
	}
	return nil
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.ParentCode, &a.Level); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
