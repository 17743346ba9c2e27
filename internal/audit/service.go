// Package audit runs invariant checks over the journal, the chart of
// accounts and stored consolidation snapshots. Checks are stateless and
// read-only; each returns a structured result carrying the offending
// entry numbers or account codes so remediation can be driven elsewhere.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/consol"
	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/money"
)

// Status classifies one check outcome.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// Check is one invariant verification result.
type Check struct {
	Name   string   `json:"name"`
	Status Status   `json:"status"`
	Detail string   `json:"detail,omitempty"`
	Refs   []string `json:"refs,omitempty"`
}

// Report bundles a full validation run. Status is the worst check status.
type Report struct {
	RanAt  time.Time `json:"ranAt"`
	Status Status    `json:"status"`
	Checks []Check   `json:"checks"`
}

// EntrySource yields posted and voided entries for a period.
type EntrySource interface {
	Query(ctx context.Context, filter journal.Filter) ([]journal.Entry, error)
}

// ChartSource yields the current account tree.
type ChartSource interface {
	Tree(ctx context.Context) (*coa.Tree, error)
}

// SnapshotSource yields stored consolidation snapshots.
type SnapshotSource interface {
	ListSnapshots(ctx context.Context) ([]consol.Snapshot, error)
}

// Validator runs the checks. SnapshotSource is optional; without it the
// consolidation check reports pass with a note.
type Validator struct {
	entries   EntrySource
	chart     ChartSource
	snapshots SnapshotSource
	logger    *slog.Logger
	now       func() time.Time
}

func NewValidator(entries EntrySource, chart ChartSource, snapshots SnapshotSource, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		entries:   entries,
		chart:     chart,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes every check and aggregates the worst status.
func (v *Validator) Run(ctx context.Context) (Report, error) {
	entries, err := v.entries.Query(ctx, journal.Filter{})
	if err != nil {
		return Report{}, fmt.Errorf("audit: load entries: %w", err)
	}
	tree, err := v.chart.Tree(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("audit: load chart: %w", err)
	}

	report := Report{RanAt: v.now(), Status: StatusPass}
	report.Checks = append(report.Checks,
		v.entryBalanceCheck(entries),
		v.ledgerBalanceCheck(entries),
		v.sequenceCheck(entries),
		v.orphanCheck(entries, tree),
	)
	report.Checks = append(report.Checks, v.consolidationCheck(ctx))

	for _, check := range report.Checks {
		if check.Status == StatusFail {
			report.Status = StatusFail
			break
		}
		if check.Status == StatusWarning {
			report.Status = StatusWarning
		}
	}
	v.logger.Info("audit run complete",
		slog.String("status", string(report.Status)),
		slog.Int("checks", len(report.Checks)))
	return report, nil
}

// entryBalanceCheck verifies sum(debit) == sum(credit) per entry.
func (v *Validator) entryBalanceCheck(entries []journal.Entry) Check {
	check := Check{Name: "entry_balance", Status: StatusPass}
	for _, entry := range entries {
		debit, credit := entry.Totals()
		if !money.WithinTolerance(debit, credit) {
			check.Status = StatusFail
			check.Refs = append(check.Refs, fmt.Sprintf("entry %d delta %s", entry.Number, debit.Sub(credit).StringFixed(2)))
		}
	}
	if check.Status == StatusFail {
		check.Detail = fmt.Sprintf("%d unbalanced entries", len(check.Refs))
	}
	return check
}

// ledgerBalanceCheck verifies total debits equal total credits across the
// whole journal.
func (v *Validator) ledgerBalanceCheck(entries []journal.Entry) Check {
	var debit, credit decimal.Decimal
	for _, entry := range entries {
		entryDebit, entryCredit := entry.Totals()
		debit = debit.Add(entryDebit)
		credit = credit.Add(entryCredit)
	}
	if money.WithinTolerance(debit, credit) {
		return Check{Name: "ledger_balance", Status: StatusPass}
	}
	return Check{
		Name:   "ledger_balance",
		Status: StatusFail,
		Detail: fmt.Sprintf("total debits %s vs credits %s", debit.StringFixed(2), credit.StringFixed(2)),
	}
}

// sequenceCheck detects duplicate and missing entry numbers. Numbers held
// by voided entries and their reversals are reported as warnings, never
// hidden; any other gap or any duplicate is a failure.
func (v *Validator) sequenceCheck(entries []journal.Entry) Check {
	check := Check{Name: "sequence", Status: StatusPass}
	if len(entries) == 0 {
		return check
	}

	seen := make(map[int64]journal.Entry, len(entries))
	voidedPairs := make([]string, 0)
	var min, max int64 = entries[0].Number, entries[0].Number
	for _, entry := range entries {
		if prev, dup := seen[entry.Number]; dup {
			check.Status = StatusFail
			check.Refs = append(check.Refs, fmt.Sprintf("number %d assigned to entries %s and %s", entry.Number, prev.ID, entry.ID))
			continue
		}
		seen[entry.Number] = entry
		if entry.Number < min {
			min = entry.Number
		}
		if entry.Number > max {
			max = entry.Number
		}
		if entry.Status == journal.StatusVoided || entry.IsReversal() {
			voidedPairs = append(voidedPairs, fmt.Sprintf("number %d (%s)", entry.Number, entry.Status))
		}
	}
	for number := min; number <= max; number++ {
		if _, ok := seen[number]; !ok {
			check.Status = StatusFail
			check.Refs = append(check.Refs, fmt.Sprintf("missing number %d", number))
		}
	}
	if check.Status == StatusFail {
		check.Detail = "sequence gaps or duplicates detected"
		return check
	}
	if len(voidedPairs) > 0 {
		sort.Strings(voidedPairs)
		check.Status = StatusWarning
		check.Detail = "voided entries and reversals hold sequence numbers"
		check.Refs = voidedPairs
	}
	return check
}

// orphanCheck finds journal lines whose account no longer exists in the
// chart. Possible after restructuring the chart under posted history.
func (v *Validator) orphanCheck(entries []journal.Entry, tree *coa.Tree) Check {
	check := Check{Name: "orphan_accounts", Status: StatusPass}
	orphans := make(map[string][]int64)
	for _, entry := range entries {
		for _, line := range entry.Lines {
			if _, err := tree.Resolve(line.AccountCode); err != nil {
				orphans[line.AccountCode] = append(orphans[line.AccountCode], entry.Number)
			}
		}
	}
	if len(orphans) == 0 {
		return check
	}
	check.Status = StatusFail
	codes := make([]string, 0, len(orphans))
	for code := range orphans {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		check.Refs = append(check.Refs, fmt.Sprintf("account %s referenced by entries %v", code, orphans[code]))
	}
	check.Detail = fmt.Sprintf("%d accounts missing from chart", len(codes))
	return check
}

// consolidationCheck verifies eliminations only remove value: the members'
// unconsolidated assets must cover the consolidated total.
func (v *Validator) consolidationCheck(ctx context.Context) Check {
	check := Check{Name: "consolidation_sanity", Status: StatusPass}
	if v.snapshots == nil {
		check.Detail = "no consolidation store configured"
		return check
	}
	snapshots, err := v.snapshots.ListSnapshots(ctx)
	if err != nil {
		check.Status = StatusWarning
		check.Detail = fmt.Sprintf("snapshots unavailable: %v", err)
		return check
	}
	for _, snapshot := range snapshots {
		if snapshot.TotalAssets.GreaterThan(snapshot.MemberAssetTotal) &&
			!money.WithinTolerance(snapshot.TotalAssets, snapshot.MemberAssetTotal) {
			check.Status = StatusFail
			check.Refs = append(check.Refs, fmt.Sprintf("snapshot %s consolidated %s exceeds member assets %s",
				snapshot.ID, snapshot.TotalAssets.StringFixed(2), snapshot.MemberAssetTotal.StringFixed(2)))
		}
	}
	if check.Status == StatusFail {
		check.Detail = "elimination overuse detected"
	}
	return check
}
