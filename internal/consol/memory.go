package consol

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository backs tests and single-process setups.
type MemoryRepository struct {
	mu           sync.RWMutex
	entities     []Entity
	transactions map[uuid.UUID]Transaction
	balances     map[string]EntityBalances
	snapshots    map[uuid.UUID]Snapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		transactions: make(map[uuid.UUID]Transaction),
		balances:     make(map[string]EntityBalances),
		snapshots:    make(map[uuid.UUID]Snapshot),
	}
}

// AddEntity registers a group member together with its period balances.
func (r *MemoryRepository) AddEntity(entity Entity, balances EntityBalances) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = append(r.entities, entity)
	r.balances[entity.ID] = balances
}

// AddTransaction registers an intercompany transaction.
func (r *MemoryRepository) AddTransaction(txn Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[txn.ID] = txn
}

func (r *MemoryRepository) ListEntities(_ context.Context) ([]Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out, nil
}

func (r *MemoryRepository) ListTransactions(_ context.Context, periodStart, periodEnd time.Time) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Transaction, 0, len(r.transactions))
	for _, txn := range r.transactions {
		if txn.Date.Before(periodStart) || txn.Date.After(periodEnd) {
			continue
		}
		out = append(out, txn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *MemoryRepository) EntityBalances(_ context.Context, entityID string, _, _ time.Time) (EntityBalances, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[entityID], nil
}

func (r *MemoryRepository) RecordRun(_ context.Context, snapshot Snapshot, eliminatedIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range eliminatedIDs {
		txn, ok := r.transactions[id]
		if !ok {
			continue
		}
		txn.Eliminated = true
		r.transactions[id] = txn
	}
	r.snapshots[snapshot.ID] = snapshot
	return nil
}

func (r *MemoryRepository) GetSnapshot(_ context.Context, id uuid.UUID) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.snapshots[id]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (r *MemoryRepository) ListSnapshots(_ context.Context) ([]Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.snapshots))
	for _, snapshot := range r.snapshots {
		out = append(out, snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}

// Transaction returns the stored transaction, used by tests to assert the
// eliminated flag.
func (r *MemoryRepository) Transaction(id uuid.UUID) (Transaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn, ok := r.transactions[id]
	return txn, ok
}
