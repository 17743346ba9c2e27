package journal

import (
	"context"

	"github.com/google/uuid"
)

// TxRepository exposes the mutations available inside a posting
// transaction. NextNumber must reserve atomically: two concurrent
// transactions never observe the same value.
type TxRepository interface {
	NextNumber(ctx context.Context) (int64, error)
	NumberExists(ctx context.Context, number int64) (bool, error)
	GetByExternalRef(ctx context.Context, ref string) (Entry, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	Insert(ctx context.Context, entry Entry) error
	MarkVoided(ctx context.Context, id uuid.UUID, reversalID uuid.UUID, reason string) error
}

// Repository abstracts journal persistence. Reads outside WithTx are
// snapshot reads over posted entries only.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	GetByExternalRef(ctx context.Context, ref string) (Entry, error)
	List(ctx context.Context, filter Filter) ([]Entry, error)
	HasPostings(ctx context.Context, accountCode string) (bool, error)
}
