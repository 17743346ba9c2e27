package coa

import "context"

// Repository abstracts chart-of-accounts persistence.
type Repository interface {
	GetAccount(ctx context.Context, code string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	ListChildren(ctx context.Context, code string) ([]Account, error)
	SaveAccount(ctx context.Context, account Account) error
	DeleteAccount(ctx context.Context, code string) error
}
