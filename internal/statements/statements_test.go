package statements

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/ledger"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

var period = struct {
	start, end time.Time
}{
	start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	end:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
}

func newGenerator(t *testing.T) (*Generator, *journal.Service) {
	t.Helper()
	accountRepo := coa.NewMemoryRepository()
	require.NoError(t, coa.SeedDefaultChart(context.Background(), accountRepo))
	accounts := coa.NewService(accountRepo, nil)
	journalSvc := journal.NewService(journal.NewMemoryRepository(), accounts, slog.Default())
	aggregator := ledger.NewService(journalSvc, accounts)
	return NewGenerator(aggregator, DefaultClassification()), journalSvc
}

func post(t *testing.T, svc *journal.Service, concept string, lines []journal.LineInput) {
	t.Helper()
	_, err := svc.Submit(context.Background(), journal.PostingInput{
		Date:    time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Concept: concept,
		Lines:   lines,
	})
	require.NoError(t, err)
}

func seedYear(t *testing.T, svc *journal.Service) {
	post(t, svc, "venta productos", []journal.LineInput{
		{AccountCode: "1111", Debit: dec(1300)},
		{AccountCode: "41", Credit: dec(1000)},
		{AccountCode: "212", Credit: dec(300)},
	})
	post(t, svc, "venta servicios", []journal.LineInput{
		{AccountCode: "1121", Debit: dec(500)},
		{AccountCode: "42", Credit: dec(500)},
	})
	post(t, svc, "costo de ventas", []journal.LineInput{
		{AccountCode: "51", Debit: dec(400)},
		{AccountCode: "1111", Credit: dec(400)},
	})
	post(t, svc, "planilla", []journal.LineInput{
		{AccountCode: "521", Debit: dec(150)},
		{AccountCode: "211", Credit: dec(150)},
	})
	post(t, svc, "impuesto transacciones", []journal.LineInput{
		{AccountCode: "53", Debit: dec(45)},
		{AccountCode: "1111", Credit: dec(45)},
	})
	post(t, svc, "otros ingresos", []journal.LineInput{
		{AccountCode: "1111", Debit: dec(30)},
		{AccountCode: "43", Credit: dec(30)},
	})
	post(t, svc, "otros gastos", []journal.LineInput{
		{AccountCode: "54", Debit: dec(20)},
		{AccountCode: "1111", Credit: dec(20)},
	})
	post(t, svc, "IUE", []journal.LineInput{
		{AccountCode: "55", Debit: dec(100)},
		{AccountCode: "211", Credit: dec(100)},
	})
}

func TestIncomeStatementProfitCascade(t *testing.T) {
	gen, journalSvc := newGenerator(t)
	seedYear(t, journalSvc)

	is, err := gen.IncomeStatement(context.Background(), period.start, period.end)
	require.NoError(t, err)

	require.Len(t, is.Revenue, 2)
	assert.Equal(t, "Ventas de Productos", is.Revenue[0].Label)
	assert.Equal(t, "Ventas de Servicios", is.Revenue[1].Label)
	assert.True(t, is.TotalRevenue.Equal(dec(1500)))
	assert.True(t, is.GrossProfit.Equal(dec(1100)), "gross = revenue - direct costs")
	assert.True(t, is.OperatingProfit.Equal(dec(905)), "operating = gross - opex - IT")
	assert.True(t, is.ProfitBeforeTax.Equal(dec(915)))
	assert.True(t, is.NetProfit.Equal(dec(815)), "net = before tax - IUE")
}

func TestIncomeStatementNoDoubleCounting(t *testing.T) {
	gen, journalSvc := newGenerator(t)
	// Lines hit 521 and 522, both under the "52" rule; the statement must
	// count the 52 rollup once, not the parent plus each child.
	post(t, journalSvc, "personal", []journal.LineInput{
		{AccountCode: "521", Debit: dec(100)},
		{AccountCode: "522", Debit: dec(50)},
		{AccountCode: "211", Credit: dec(150)},
	})

	is, err := gen.IncomeStatement(context.Background(), period.start, period.end)
	require.NoError(t, err)
	assert.True(t, is.OperatingExpenses.Total.Equal(dec(150)))
	require.Len(t, is.OperatingExpenses.Accounts, 1)
	assert.Equal(t, "52", is.OperatingExpenses.Accounts[0].Code)
}

func TestIncomeStatementSurfacesUnclassifiedAccounts(t *testing.T) {
	accountRepo := coa.NewMemoryRepository()
	require.NoError(t, coa.SeedDefaultChart(context.Background(), accountRepo))
	accounts := coa.NewService(accountRepo, nil)
	// "56" sits outside every DefaultClassification prefix.
	_, err := accounts.Register(context.Background(), coa.Account{
		Code: "56", Name: "Gastos Extraordinarios", Type: coa.TypeExpense, ParentCode: "5",
	})
	require.NoError(t, err)
	journalSvc := journal.NewService(journal.NewMemoryRepository(), accounts, slog.Default())
	gen := NewGenerator(ledger.NewService(journalSvc, accounts), DefaultClassification())

	post(t, journalSvc, "venta", []journal.LineInput{
		{AccountCode: "1111", Debit: dec(1000)},
		{AccountCode: "41", Credit: dec(1000)},
	})
	post(t, journalSvc, "costo", []journal.LineInput{
		{AccountCode: "51", Debit: dec(200)},
		{AccountCode: "1111", Credit: dec(200)},
	})
	post(t, journalSvc, "gasto extraordinario", []journal.LineInput{
		{AccountCode: "56", Debit: dec(400)},
		{AccountCode: "1111", Credit: dec(400)},
	})

	is, err := gen.IncomeStatement(context.Background(), period.start, period.end)
	require.NoError(t, err)
	bs, err := gen.BalanceSheet(context.Background(), period.end)
	require.NoError(t, err)

	require.Len(t, is.Unclassified.Accounts, 1, "56 surfaces alone; the 5 root holds classified activity too")
	assert.Equal(t, "56", is.Unclassified.Accounts[0].Code)
	assert.True(t, is.Unclassified.Total.Equal(dec(-400)), "expense contributes negatively")
	assert.True(t, is.NetProfit.Equal(dec(400)), "net = 1000 - 200 - 400")
	assert.True(t, is.NetProfit.Equal(bs.CurrentResult), "net profit must agree with the balance sheet current result")
}

func TestBalanceSheetEquation(t *testing.T) {
	gen, journalSvc := newGenerator(t)
	seedYear(t, journalSvc)

	bs, err := gen.BalanceSheet(context.Background(), period.end)
	require.NoError(t, err)

	assert.True(t, bs.TotalAssets.Equal(dec(1365)), "assets: got %s", bs.TotalAssets)
	assert.True(t, bs.TotalLiabilities.Equal(dec(550)))
	assert.True(t, bs.CurrentResult.Equal(dec(815)), "period result flows into equity")
	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity), "A = L + E")
}

func TestBalanceSheetUnbalancedDetection(t *testing.T) {
	rows := []ledger.Balance{
		{AccountCode: "1", Type: coa.TypeAsset, Nature: coa.NatureDebit, Level: 1, Net: dec(1000)},
		{AccountCode: "2", Type: coa.TypeLiability, Nature: coa.NatureCredit, Level: 1, Net: dec(300)},
	}
	_, err := BuildBalanceSheet(rows, time.Now())
	assert.ErrorIs(t, err, ErrUnbalancedStatement)
}

func TestClassificationLongestPrefixWins(t *testing.T) {
	cls := NewClassification([]Rule{
		{Prefix: "4", Category: CategoryOtherIncome, Label: "Otros"},
		{Prefix: "41", Category: CategoryRevenue, Label: "Ventas"},
	})
	rule, ok := cls.Classify("411")
	require.True(t, ok)
	assert.Equal(t, CategoryRevenue, rule.Category)

	_, ok = cls.Classify("9")
	assert.False(t, ok)
}
