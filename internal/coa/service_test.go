package coa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPostings struct {
	used map[string]bool
}

func (s stubPostings) HasPostings(ctx context.Context, code string) (bool, error) {
	return s.used[code], nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := NewMemoryRepository()
	require.NoError(t, SeedDefaultChart(context.Background(), repo))
	return NewService(repo, stubPostings{used: map[string]bool{"1111": true}})
}

func TestRegisterAssignsLevelFromParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, Account{Code: "1123", Name: "Anticipos", Type: TypeAsset, ParentCode: "112"})
	require.NoError(t, err)
	assert.Equal(t, 4, account.Level)

	resolved, err := svc.Resolve(ctx, "1123")
	require.NoError(t, err)
	assert.Equal(t, "Anticipos", resolved.Name)
}

func TestRegisterRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Account{Code: "1111", Name: "Caja", Type: TypeAsset, ParentCode: "111"})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.Register(ctx, Account{Code: "991", Name: "Huérfana", Type: TypeAsset, ParentCode: "99"})
	assert.ErrorIs(t, err, ErrInvalidParent)

	_, err = svc.Register(ctx, Account{Code: "115", Name: "Mixta", Type: TypeIncome, ParentCode: "11"})
	assert.ErrorIs(t, err, ErrInvalidParent)

	_, err = svc.Register(ctx, Account{Code: "116", Name: "Sin tipo", Type: Type("OTHER")})
	assert.ErrorIs(t, err, ErrInvalidNature)
}

func TestResolveUnknownAccount(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Resolve(context.Background(), "404")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestDeleteGuards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.Delete(ctx, "11")
	assert.ErrorIs(t, err, ErrHasChildren)

	err = svc.Delete(ctx, "1111")
	assert.ErrorIs(t, err, ErrHasPostings)

	require.NoError(t, svc.Delete(ctx, "1122"))
	_, err = svc.Resolve(ctx, "1122")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
