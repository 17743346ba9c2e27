package coa

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps the chart in process memory. It backs tests and
// the embedded deployment mode.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository returns an empty in-memory chart.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]Account)}
}

func (r *MemoryRepository) GetAccount(ctx context.Context, code string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[code]
	if !ok {
		return Account{}, ErrUnknownAccount
	}
	return account, nil
}

func (r *MemoryRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRepository) ListChildren(ctx context.Context, code string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0)
	for _, account := range r.accounts {
		if account.ParentCode == code {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRepository) SaveAccount(ctx context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.Code] = account
	return nil
}

func (r *MemoryRepository) DeleteAccount(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[code]; !ok {
		return ErrUnknownAccount
	}
	delete(r.accounts, code)
	return nil
}
