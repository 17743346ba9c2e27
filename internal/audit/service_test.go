package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/consol"
	"github.com/quipu-ledger/quipu/internal/journal"
)

type staticEntries struct {
	entries []journal.Entry
}

func (s staticEntries) Query(_ context.Context, filter journal.Filter) ([]journal.Entry, error) {
	out := make([]journal.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type staticSnapshots struct {
	snapshots []consol.Snapshot
}

func (s staticSnapshots) ListSnapshots(context.Context) ([]consol.Snapshot, error) {
	return s.snapshots, nil
}

func newChart(t *testing.T) *coa.Service {
	t.Helper()
	repo := coa.NewMemoryRepository()
	require.NoError(t, coa.SeedDefaultChart(context.Background(), repo))
	return coa.NewService(repo, nil)
}

func balancedEntry(number int64, debitCode, creditCode string, amount int64) journal.Entry {
	return journal.Entry{
		ID:     uuid.New(),
		Number: number,
		Date:   time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Status: journal.StatusPosted,
		Lines: []journal.Line{
			{AccountCode: debitCode, Debit: decimal.NewFromInt(amount)},
			{AccountCode: creditCode, Credit: decimal.NewFromInt(amount)},
		},
	}
}

func TestRunAllChecksPass(t *testing.T) {
	chart := newChart(t)
	entries := staticEntries{entries: []journal.Entry{
		balancedEntry(1, "1111", "41", 1000),
		balancedEntry(2, "1121", "41", 250),
	}}
	validator := NewValidator(entries, chart, staticSnapshots{}, nil)

	report, err := validator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, report.Status)
	require.Len(t, report.Checks, 5)
	for _, check := range report.Checks {
		assert.Equal(t, StatusPass, check.Status, check.Name)
	}
}

func TestEntryBalanceCheckFlagsUnbalancedEntry(t *testing.T) {
	chart := newChart(t)
	broken := balancedEntry(1, "1111", "41", 100)
	broken.Lines[1].Credit = decimal.NewFromInt(90)
	validator := NewValidator(staticEntries{entries: []journal.Entry{broken}}, chart, nil, nil)

	report, err := validator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFail, report.Status)

	entryCheck := findCheck(t, report, "entry_balance")
	assert.Equal(t, StatusFail, entryCheck.Status)
	require.Len(t, entryCheck.Refs, 1)
	assert.Contains(t, entryCheck.Refs[0], "entry 1")
	assert.Contains(t, entryCheck.Refs[0], "10.00")

	ledgerCheck := findCheck(t, report, "ledger_balance")
	assert.Equal(t, StatusFail, ledgerCheck.Status)
}

func TestSequenceCheckFlagsGapsAndDuplicates(t *testing.T) {
	chart := newChart(t)
	entries := staticEntries{entries: []journal.Entry{
		balancedEntry(1, "1111", "41", 100),
		balancedEntry(3, "1111", "41", 100),
		balancedEntry(3, "1121", "41", 50),
	}}
	validator := NewValidator(entries, chart, nil, nil)

	report, err := validator.Run(context.Background())
	require.NoError(t, err)

	check := findCheck(t, report, "sequence")
	assert.Equal(t, StatusFail, check.Status)
	assert.Contains(t, check.Refs, "missing number 2")
	var dupFound bool
	for _, ref := range check.Refs {
		if ref != "missing number 2" {
			dupFound = true
			assert.Contains(t, ref, "number 3")
		}
	}
	assert.True(t, dupFound)
}

func TestSequenceCheckReportsVoidedPairsAsWarning(t *testing.T) {
	chart := newChart(t)
	original := balancedEntry(1, "1111", "41", 100)
	original.Status = journal.StatusVoided
	reversal := balancedEntry(2, "41", "1111", 100)
	reversal.ReversalOf = &original.ID
	entries := staticEntries{entries: []journal.Entry{original, reversal}}
	validator := NewValidator(entries, chart, nil, nil)

	report, err := validator.Run(context.Background())
	require.NoError(t, err)

	check := findCheck(t, report, "sequence")
	assert.Equal(t, StatusWarning, check.Status, "voided pairs are reported, not hidden")
	assert.Len(t, check.Refs, 2)
	assert.Equal(t, StatusWarning, report.Status)
}

func TestOrphanCheckFlagsRemovedAccount(t *testing.T) {
	chart := newChart(t)
	entries := staticEntries{entries: []journal.Entry{
		balancedEntry(1, "1111", "9999", 100),
	}}
	validator := NewValidator(entries, chart, nil, nil)

	report, err := validator.Run(context.Background())
	require.NoError(t, err)

	check := findCheck(t, report, "orphan_accounts")
	assert.Equal(t, StatusFail, check.Status)
	require.Len(t, check.Refs, 1)
	assert.Contains(t, check.Refs[0], "account 9999")
}

func TestConsolidationCheckFlagsEliminationOveruse(t *testing.T) {
	chart := newChart(t)
	snapshots := staticSnapshots{snapshots: []consol.Snapshot{
		{
			ID:               uuid.New(),
			TotalAssets:      decimal.NewFromInt(12000),
			MemberAssetTotal: decimal.NewFromInt(10000),
		},
		{
			ID:               uuid.New(),
			TotalAssets:      decimal.NewFromInt(9000),
			MemberAssetTotal: decimal.NewFromInt(10000),
		},
	}}
	validator := NewValidator(staticEntries{}, chart, snapshots, nil)

	report, err := validator.Run(context.Background())
	require.NoError(t, err)

	check := findCheck(t, report, "consolidation_sanity")
	assert.Equal(t, StatusFail, check.Status)
	require.Len(t, check.Refs, 1, "only the overconsolidated snapshot is flagged")
}

func findCheck(t *testing.T, report Report, name string) Check {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %s missing from report", name)
	return Check{}
}
