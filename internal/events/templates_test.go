package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventDate = time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)

func TestInvoiceIssuedSplitsVAT(t *testing.T) {
	input := InvoiceIssued(Invoice{
		ID:    "F-0001",
		Date:  eventDate,
		Total: decimal.NewFromInt(1000),
	})
	require.NoError(t, input.Validate())
	assert.Equal(t, "invoice:F-0001", input.ExternalRef)

	require.Len(t, input.Lines, 3)
	assert.Equal(t, AccountReceivable, input.Lines[0].AccountCode)
	assert.True(t, input.Lines[0].Debit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, input.Lines[1].Credit.Equal(decimal.NewFromInt(870)), "revenue net of 13%% IVA")
	assert.True(t, input.Lines[2].Credit.Equal(decimal.NewFromInt(130)))
}

func TestInvoiceIssuedCashVariant(t *testing.T) {
	input := InvoiceIssued(Invoice{ID: "F-0002", Date: eventDate, Total: decimal.NewFromInt(500), Cash: true})
	require.NoError(t, input.Validate())
	assert.Equal(t, AccountCash, input.Lines[0].AccountCode)
}

func TestPaymentReceived(t *testing.T) {
	input := PaymentReceived(Payment{ID: "P-9", InvoiceID: "F-0001", Date: eventDate, Amount: decimal.NewFromInt(400)})
	require.NoError(t, input.Validate())
	assert.Equal(t, AccountCash, input.Lines[0].AccountCode)
	assert.Equal(t, AccountReceivable, input.Lines[1].AccountCode)
}

func TestPurchaseDefaultsToCostOfSales(t *testing.T) {
	input := PurchaseMade(Purchase{ID: "C-1", Date: eventDate, Amount: decimal.NewFromInt(300)})
	require.NoError(t, input.Validate())
	assert.Equal(t, AccountCostOfSales, input.Lines[0].AccountCode)

	expense := PurchaseMade(Purchase{ID: "C-2", Date: eventDate, Amount: decimal.NewFromInt(80), TargetAccount: "52"})
	assert.Equal(t, "52", expense.Lines[0].AccountCode)
}

func TestPayrollRunBalances(t *testing.T) {
	input := PayrollRun(Payroll{
		ID:              "2026-04",
		Date:            eventDate,
		GrossWages:      decimal.NewFromInt(10000),
		EmployerCharges: decimal.NewFromInt(1670),
		Withholdings:    decimal.NewFromInt(1290),
	})
	require.NoError(t, input.Validate())

	require.Len(t, input.Lines, 4)
	assert.True(t, input.Lines[2].Credit.Equal(decimal.NewFromInt(8710)), "net wages")
	assert.True(t, input.Lines[3].Credit.Equal(decimal.NewFromInt(2960)), "withholdings plus employer charges")
}

func TestAssetAndDepreciation(t *testing.T) {
	acquired := AssetAcquired(AssetAcquisition{ID: "A-1", Date: eventDate, Cost: decimal.NewFromInt(12000), Detail: "Servidor"})
	require.NoError(t, acquired.Validate())
	assert.Equal(t, AccountFixedAsset, acquired.Lines[0].AccountCode)

	charge := DepreciationRun(Depreciation{Period: "2026-04", Date: eventDate, Amount: decimal.NewFromInt(250)})
	require.NoError(t, charge.Validate())
	assert.Equal(t, AccountDepreciationExp, charge.Lines[0].AccountCode)
	assert.Equal(t, AccountAccumulatedDep, charge.Lines[1].AccountCode)
	assert.Equal(t, "depreciation:2026-04", charge.ExternalRef)
}
