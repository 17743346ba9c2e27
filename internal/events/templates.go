// Package events maps business events from upstream collaborators
// (invoicing, payments, payroll, asset management) to journal posting
// inputs with fixed account templates. Each builder stamps the event's
// external reference so retried deliveries post at most once.
package events

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/money"
)

// Default account codes for the Bolivian chart. Builders take the codes as
// parameters where the event legitimately varies (cash vs receivable,
// cost vs expense); these cover the fixed legs.
const (
	AccountCash            = "1111"
	AccountReceivable      = "1121"
	AccountVATPayable      = "212"
	AccountWagesPayable    = "213"
	AccountWithholdings    = "214"
	AccountFixedAsset      = "121"
	AccountAccumulatedDep  = "122"
	AccountRevenue         = "41"
	AccountCostOfSales     = "51"
	AccountPersonnelExp    = "521"
	AccountEmployerCharges = "522"
	AccountDepreciationExp = "523"
)

// vatRate is the Bolivian IVA applied on invoice totals.
var vatRate = decimal.RequireFromString("0.13")

// Invoice describes an issued sales invoice. Total is VAT-inclusive; Cash
// true means paid on the spot, otherwise it books a receivable.
type Invoice struct {
	ID    string
	Date  time.Time
	Total decimal.Decimal
	Cash  bool
}

// InvoiceIssued books revenue and the VAT debit against cash or
// receivable.
func InvoiceIssued(inv Invoice) journal.PostingInput {
	vat := money.Round2(inv.Total.Mul(vatRate))
	revenue := inv.Total.Sub(vat)
	debitAccount := AccountReceivable
	if inv.Cash {
		debitAccount = AccountCash
	}
	return journal.PostingInput{
		Date:        inv.Date,
		Concept:     fmt.Sprintf("Factura emitida %s", inv.ID),
		ExternalRef: fmt.Sprintf("invoice:%s", inv.ID),
		Lines: []journal.LineInput{
			{AccountCode: debitAccount, Debit: inv.Total},
			{AccountCode: AccountRevenue, Credit: revenue},
			{AccountCode: AccountVATPayable, Credit: vat},
		},
	}
}

// Payment describes a collection against an outstanding receivable.
type Payment struct {
	ID        string
	InvoiceID string
	Date      time.Time
	Amount    decimal.Decimal
}

// PaymentReceived moves the collected amount from receivable to cash.
func PaymentReceived(p Payment) journal.PostingInput {
	return journal.PostingInput{
		Date:        p.Date,
		Concept:     fmt.Sprintf("Cobro factura %s", p.InvoiceID),
		ExternalRef: fmt.Sprintf("payment:%s", p.ID),
		Lines: []journal.LineInput{
			{AccountCode: AccountCash, Debit: p.Amount},
			{AccountCode: AccountReceivable, Credit: p.Amount},
		},
	}
}

// Purchase describes an expense or inventory purchase paid in cash.
// TargetAccount selects cost of sales or an expense account.
type Purchase struct {
	ID            string
	Date          time.Time
	Amount        decimal.Decimal
	TargetAccount string
}

// PurchaseMade debits the target account against cash.
func PurchaseMade(p Purchase) journal.PostingInput {
	target := p.TargetAccount
	if target == "" {
		target = AccountCostOfSales
	}
	return journal.PostingInput{
		Date:        p.Date,
		Concept:     fmt.Sprintf("Compra %s", p.ID),
		ExternalRef: fmt.Sprintf("purchase:%s", p.ID),
		Lines: []journal.LineInput{
			{AccountCode: target, Debit: p.Amount},
			{AccountCode: AccountCash, Credit: p.Amount},
		},
	}
}

// Payroll describes one payroll run already computed upstream.
type Payroll struct {
	ID              string
	Date            time.Time
	GrossWages      decimal.Decimal
	EmployerCharges decimal.Decimal
	Withholdings    decimal.Decimal
}

// PayrollRun books personnel cost and employer charges against net wages
// payable and withholdings payable.
func PayrollRun(p Payroll) journal.PostingInput {
	netWages := p.GrossWages.Sub(p.Withholdings)
	return journal.PostingInput{
		Date:        p.Date,
		Concept:     fmt.Sprintf("Planilla %s", p.ID),
		ExternalRef: fmt.Sprintf("payroll:%s", p.ID),
		Lines: []journal.LineInput{
			{AccountCode: AccountPersonnelExp, Debit: p.GrossWages},
			{AccountCode: AccountEmployerCharges, Debit: p.EmployerCharges},
			{AccountCode: AccountWagesPayable, Credit: netWages},
			{AccountCode: AccountWithholdings, Credit: p.Withholdings.Add(p.EmployerCharges)},
		},
	}
}

// AssetAcquisition describes a fixed asset bought with cash.
type AssetAcquisition struct {
	ID     string
	Date   time.Time
	Cost   decimal.Decimal
	Detail string
}

// AssetAcquired capitalises the asset.
func AssetAcquired(a AssetAcquisition) journal.PostingInput {
	return journal.PostingInput{
		Date:        a.Date,
		Concept:     fmt.Sprintf("Compra activo fijo %s", a.Detail),
		ExternalRef: fmt.Sprintf("asset:%s", a.ID),
		Lines: []journal.LineInput{
			{AccountCode: AccountFixedAsset, Debit: a.Cost},
			{AccountCode: AccountCash, Credit: a.Cost},
		},
	}
}

// Depreciation describes one period's depreciation charge.
type Depreciation struct {
	Period string
	Date   time.Time
	Amount decimal.Decimal
}

// DepreciationRun books the period charge against accumulated
// depreciation.
func DepreciationRun(d Depreciation) journal.PostingInput {
	return journal.PostingInput{
		Date:        d.Date,
		Concept:     fmt.Sprintf("Depreciación periodo %s", d.Period),
		ExternalRef: fmt.Sprintf("depreciation:%s", d.Period),
		Lines: []journal.LineInput{
			{AccountCode: AccountDepreciationExp, Debit: d.Amount},
			{AccountCode: AccountAccumulatedDep, Credit: d.Amount},
		},
	}
}
