package consol

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	periodStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
)

func rate(value string) *decimal.Decimal {
	parsed := decimal.RequireFromString(value)
	return &parsed
}

func groupFixture(t *testing.T) (*MemoryRepository, Transaction) {
	t.Helper()
	repo := NewMemoryRepository()
	repo.AddEntity(Entity{
		ID:               "matriz",
		Name:             "Matriz SA",
		Role:             RoleParent,
		OwnershipPercent: decimal.NewFromInt(100),
		Currency:         "BOB",
		FxRateToBase:     rate("1"),
	}, EntityBalances{
		BalanceSheet: []Line{
			{AccountCode: "11", AccountName: "Activo Corriente", Amount: decimal.NewFromInt(10000)},
			{AccountCode: "21", AccountName: "Pasivo Corriente", Amount: decimal.NewFromInt(4000)},
			{AccountCode: "31", AccountName: "Capital Social", Amount: decimal.NewFromInt(6000)},
		},
		IncomeStatement: []Line{
			{AccountCode: "41", AccountName: "Ventas", Amount: decimal.NewFromInt(8000)},
			{AccountCode: "51", AccountName: "Costo de Ventas", Amount: decimal.NewFromInt(5000)},
		},
		AssetTotal: decimal.NewFromInt(10000),
	})
	repo.AddEntity(Entity{
		ID:               "filial",
		Name:             "Filial SRL",
		Role:             RoleSubsidiary,
		OwnershipPercent: decimal.NewFromInt(100),
		Currency:         "BOB",
		FxRateToBase:     rate("1"),
	}, EntityBalances{
		BalanceSheet: []Line{
			{AccountCode: "11", AccountName: "Activo Corriente", Amount: decimal.NewFromInt(5000)},
			{AccountCode: "21", AccountName: "Pasivo Corriente", Amount: decimal.NewFromInt(2000)},
			{AccountCode: "31", AccountName: "Capital Social", Amount: decimal.NewFromInt(3000)},
		},
		IncomeStatement: []Line{
			{AccountCode: "41", AccountName: "Ventas", Amount: decimal.NewFromInt(3000)},
		},
		AssetTotal: decimal.NewFromInt(5000),
	})
	txn := Transaction{
		ID:                uuid.New(),
		OriginEntity:      "filial",
		DestinationEntity: "matriz",
		AccountCode:       "41",
		Amount:            decimal.NewFromInt(2000),
		Date:              time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	repo.AddTransaction(txn)
	return repo, txn
}

func findAccount(t *testing.T, accounts []ConsolidatedAccount, code string) ConsolidatedAccount {
	t.Helper()
	for _, account := range accounts {
		if account.Code == code {
			return account
		}
	}
	t.Fatalf("account %s not in snapshot", code)
	return ConsolidatedAccount{}
}

func TestRunEliminatesIntercompanyRevenue(t *testing.T) {
	repo, txn := groupFixture(t)
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	revenue := findAccount(t, snapshot.IncomeStatement, "41")
	assert.True(t, revenue.Consolidated.Equal(decimal.NewFromInt(9000)),
		"8000+3000-2000, got %s", revenue.Consolidated)
	assert.True(t, revenue.Eliminations.Equal(decimal.NewFromInt(2000)))
	assert.True(t, revenue.PerEntity["matriz"].Equal(decimal.NewFromInt(8000)))
	assert.True(t, revenue.PerEntity["filial"].Equal(decimal.NewFromInt(3000)))

	stored, ok := repo.Transaction(txn.ID)
	require.True(t, ok)
	assert.True(t, stored.Eliminated)
	require.Len(t, snapshot.Eliminations, 1)
	assert.Equal(t, txn.ID, snapshot.Eliminations[0].TransactionID)
}

func TestRunIsIdempotentAcrossReruns(t *testing.T) {
	repo, _ := groupFixture(t)
	svc := NewService(repo, nil, nil)

	first, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	firstRevenue := findAccount(t, first.IncomeStatement, "41")
	secondRevenue := findAccount(t, second.IncomeStatement, "41")
	assert.True(t, firstRevenue.Consolidated.Equal(secondRevenue.Consolidated),
		"re-run must not eliminate twice: %s vs %s", firstRevenue.Consolidated, secondRevenue.Consolidated)
	assert.Empty(t, second.Eliminations)
}

func TestRunExcludesEntityWithoutRate(t *testing.T) {
	repo, _ := groupFixture(t)
	repo.AddEntity(Entity{
		ID:               "sucursal-pe",
		Name:             "Sucursal Perú",
		Role:             RoleSubsidiary,
		OwnershipPercent: decimal.NewFromInt(100),
		Currency:         "PEN",
		FxRateToBase:     nil,
	}, EntityBalances{
		BalanceSheet: []Line{{AccountCode: "11", Amount: decimal.NewFromInt(9999)}},
		AssetTotal:   decimal.NewFromInt(9999),
	})
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	require.Len(t, snapshot.Excluded, 1)
	assert.Equal(t, "sucursal-pe", snapshot.Excluded[0].EntityID)
	assets := findAccount(t, snapshot.BalanceSheet, "11")
	assert.True(t, assets.Consolidated.Equal(decimal.NewFromInt(15000)),
		"excluded entity must not contribute, got %s", assets.Consolidated)
}

func TestRunAppliesOwnershipAndRate(t *testing.T) {
	repo := NewMemoryRepository()
	repo.AddEntity(Entity{
		ID:               "matriz",
		Role:             RoleParent,
		OwnershipPercent: decimal.NewFromInt(100),
		Currency:         "BOB",
		FxRateToBase:     rate("1"),
	}, EntityBalances{
		BalanceSheet: []Line{{AccountCode: "11", Amount: decimal.NewFromInt(1000)}},
		AssetTotal:   decimal.NewFromInt(1000),
	})
	repo.AddEntity(Entity{
		ID:               "filial-usd",
		Role:             RoleSubsidiary,
		OwnershipPercent: decimal.NewFromInt(60),
		Currency:         "USD",
		FxRateToBase:     rate("6.96"),
	}, EntityBalances{
		BalanceSheet: []Line{{AccountCode: "11", Amount: decimal.NewFromInt(100)}},
		AssetTotal:   decimal.NewFromInt(100),
	})
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	assets := findAccount(t, snapshot.BalanceSheet, "11")
	// 1000 + 100 * 6.96 * 0.60
	assert.True(t, assets.Consolidated.Equal(decimal.RequireFromString("1417.60")),
		"got %s", assets.Consolidated)
}

func TestRunSkipsEliminationWithoutTargetAccount(t *testing.T) {
	repo, _ := groupFixture(t)
	ghost := Transaction{
		ID:           uuid.New(),
		OriginEntity: "filial",
		AccountCode:  "99",
		Amount:       decimal.NewFromInt(500),
		Date:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	repo.AddTransaction(ghost)
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	require.Len(t, snapshot.Skipped, 1)
	assert.Equal(t, ghost.ID, snapshot.Skipped[0].TransactionID)
	assert.Equal(t, ErrEliminationTargetNotFound.Error(), snapshot.Skipped[0].Reason)

	stored, ok := repo.Transaction(ghost.ID)
	require.True(t, ok)
	assert.False(t, stored.Eliminated, "skipped transaction must stay pending")
}

func TestRunIgnoresOutOfPeriodTransactions(t *testing.T) {
	repo, _ := groupFixture(t)
	late := Transaction{
		ID:           uuid.New(),
		OriginEntity: "filial",
		AccountCode:  "41",
		Amount:       decimal.NewFromInt(700),
		Date:         time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	repo.AddTransaction(late)
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	require.Len(t, snapshot.Eliminations, 1)
	revenue := findAccount(t, snapshot.IncomeStatement, "41")
	assert.True(t, revenue.Consolidated.Equal(decimal.NewFromInt(9000)))
}

func TestRunConsolidatedAssetsNeverExceedMembers(t *testing.T) {
	repo, _ := groupFixture(t)
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	assert.True(t, snapshot.TotalAssets.LessThanOrEqual(decimal.NewFromInt(15000)),
		"consolidated %s exceeds member total", snapshot.TotalAssets)
	assert.True(t, snapshot.Balanced)
	assert.True(t, snapshot.TotalLiabSideBalance.Equal(decimal.NewFromInt(15000)))
}

func TestRunRequiresEntities(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil)
	_, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.ErrorIs(t, err, ErrNoEntities)
}

func TestRunCancelledPersistsNothing(t *testing.T) {
	repo, txn := groupFixture(t)
	svc := NewService(repo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, periodStart, periodEnd)
	require.ErrorIs(t, err, context.Canceled)

	snapshots, err := repo.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshots)
	stored, _ := repo.Transaction(txn.ID)
	assert.False(t, stored.Eliminated)
}

func TestSnapshotLookup(t *testing.T) {
	repo, _ := groupFixture(t)
	svc := NewService(repo, nil, nil)

	snapshot, err := svc.Run(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)

	got, err := svc.Snapshot(context.Background(), snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, got.ID)

	_, err = svc.Snapshot(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}
