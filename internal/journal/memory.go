package journal

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps the journal in process memory, serialising
// postings under one mutex. It backs tests and the embedded deployment
// mode.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
	byRef   map[string]uuid.UUID
	numbers map[int64]uuid.UUID
}

// NewMemoryRepository returns an empty in-memory journal.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[uuid.UUID]Entry),
		byRef:   make(map[string]uuid.UUID),
		numbers: make(map[int64]uuid.UUID),
	}
}

type memoryTx struct {
	repo *MemoryRepository
}

// WithTx runs fn under the repository mutex. The in-memory store has no
// rollback; the service orders mutations so a failed validation never
// leaves partial state behind.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryTx{repo: r})
}

// NextNumber returns the lowest unassigned number. Explicit postings
// ahead of the sequence are skipped over once reached and the holes they
// leave behind are filled first, so numbering stays gap free.
func (t *memoryTx) NextNumber(ctx context.Context) (int64, error) {
	next := int64(1)
	for {
		if _, taken := t.repo.numbers[next]; !taken {
			return next, nil
		}
		next++
	}
}

func (t *memoryTx) NumberExists(ctx context.Context, number int64) (bool, error) {
	_, ok := t.repo.numbers[number]
	return ok, nil
}

func (t *memoryTx) GetByExternalRef(ctx context.Context, ref string) (Entry, error) {
	return t.repo.getByExternalRefLocked(ref)
}

func (t *memoryTx) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	entry, ok := t.repo.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (t *memoryTx) Insert(ctx context.Context, entry Entry) error {
	if _, taken := t.repo.numbers[entry.Number]; taken {
		return ErrNumberConflict
	}
	t.repo.entries[entry.ID] = entry
	t.repo.numbers[entry.Number] = entry.ID
	if entry.ExternalRef != "" {
		t.repo.byRef[entry.ExternalRef] = entry.ID
	}
	return nil
}

func (t *memoryTx) MarkVoided(ctx context.Context, id uuid.UUID, reversalID uuid.UUID, reason string) error {
	entry, ok := t.repo.entries[id]
	if !ok {
		return ErrNotFound
	}
	entry.Status = StatusVoided
	entry.ReversedBy = &reversalID
	entry.VoidReason = reason
	t.repo.entries[id] = entry
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r *MemoryRepository) GetByExternalRef(ctx context.Context, ref string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getByExternalRefLocked(ref)
}

func (r *MemoryRepository) getByExternalRefLocked(ref string) (Entry, error) {
	if ref == "" {
		return Entry{}, ErrNotFound
	}
	id, ok := r.byRef[ref]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return r.entries[id], nil
}

// List returns entries matching filter, ordered by number ascending.
func (r *MemoryRepository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if filter.Matches(entry) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *MemoryRepository) HasPostings(ctx context.Context, accountCode string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		for _, line := range entry.Lines {
			if line.AccountCode == accountCode {
				return true, nil
			}
		}
	}
	return false, nil
}
