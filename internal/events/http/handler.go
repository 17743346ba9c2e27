// Package http receives business events from upstream collaborators and
// posts the matching journal entries.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/events"
	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

type invoiceRequest struct {
	ID    string `json:"id" validate:"required,max=64"`
	Date  string `json:"date" validate:"required"`
	Total string `json:"total" validate:"required"`
	Cash  bool   `json:"cash"`
}

type paymentRequest struct {
	ID        string `json:"id" validate:"required,max=64"`
	InvoiceID string `json:"invoiceId" validate:"required,max=64"`
	Date      string `json:"date" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
}

type purchaseRequest struct {
	ID            string `json:"id" validate:"required,max=64"`
	Date          string `json:"date" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	TargetAccount string `json:"targetAccount" validate:"omitempty,max=16"`
}

type payrollRequest struct {
	ID              string `json:"id" validate:"required,max=64"`
	Date            string `json:"date" validate:"required"`
	GrossWages      string `json:"grossWages" validate:"required"`
	EmployerCharges string `json:"employerCharges" validate:"required"`
	Withholdings    string `json:"withholdings" validate:"required"`
}

type assetRequest struct {
	ID     string `json:"id" validate:"required,max=64"`
	Date   string `json:"date" validate:"required"`
	Cost   string `json:"cost" validate:"required"`
	Detail string `json:"detail" validate:"required,max=240"`
}

type depreciationRequest struct {
	Period string `json:"period" validate:"required,max=16"`
	Date   string `json:"date" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

type postedResponse struct {
	EntryID     string `json:"entryId"`
	Number      int64  `json:"number"`
	ExternalRef string `json:"externalReference"`
}

// Handler turns incoming events into ledger postings.
type Handler struct {
	journal    *journal.Service
	validate   *validator.Validate
	logger     *slog.Logger
	invalidate func(context.Context)
}

func NewHandler(svc *journal.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{journal: svc, validate: validator.New(), logger: logger}
}

// WithCacheInvalidator registers a callback fired after every posted
// event, so cached reports never outlive the journal state.
func (h *Handler) WithCacheInvalidator(fn func(context.Context)) *Handler {
	h.invalidate = fn
	return h
}

// Mount attaches the event intake routes.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/events/invoices", h.invoice)
	r.Post("/api/events/payments", h.payment)
	r.Post("/api/events/purchases", h.purchase)
	r.Post("/api/events/payroll", h.payroll)
	r.Post("/api/events/assets", h.asset)
	r.Post("/api/events/depreciation", h.depreciation)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, total, ok := h.dateAndAmount(w, req.Date, req.Total)
	if !ok {
		return
	}
	h.post(w, r, events.InvoiceIssued(events.Invoice{ID: req.ID, Date: date, Total: total, Cash: req.Cash}))
}

func (h *Handler) payment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, amount, ok := h.dateAndAmount(w, req.Date, req.Amount)
	if !ok {
		return
	}
	h.post(w, r, events.PaymentReceived(events.Payment{ID: req.ID, InvoiceID: req.InvoiceID, Date: date, Amount: amount}))
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, amount, ok := h.dateAndAmount(w, req.Date, req.Amount)
	if !ok {
		return
	}
	h.post(w, r, events.PurchaseMade(events.Purchase{ID: req.ID, Date: date, Amount: amount, TargetAccount: req.TargetAccount}))
}

func (h *Handler) payroll(w http.ResponseWriter, r *http.Request) {
	var req payrollRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, gross, ok := h.dateAndAmount(w, req.Date, req.GrossWages)
	if !ok {
		return
	}
	charges, err := decimal.NewFromString(req.EmployerCharges)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	withheld, err := decimal.NewFromString(req.Withholdings)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	h.post(w, r, events.PayrollRun(events.Payroll{
		ID:              req.ID,
		Date:            date,
		GrossWages:      gross,
		EmployerCharges: charges,
		Withholdings:    withheld,
	}))
}

func (h *Handler) asset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, cost, ok := h.dateAndAmount(w, req.Date, req.Cost)
	if !ok {
		return
	}
	h.post(w, r, events.AssetAcquired(events.AssetAcquisition{ID: req.ID, Date: date, Cost: cost, Detail: req.Detail}))
}

func (h *Handler) depreciation(w http.ResponseWriter, r *http.Request) {
	var req depreciationRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, amount, ok := h.dateAndAmount(w, req.Date, req.Amount)
	if !ok {
		return
	}
	h.post(w, r, events.DepreciationRun(events.Depreciation{Period: req.Period, Date: date, Amount: amount}))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := httpx.DecodeJSON(r, req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) dateAndAmount(w http.ResponseWriter, rawDate, rawAmount string) (time.Time, decimal.Decimal, bool) {
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return time.Time{}, decimal.Zero, false
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return time.Time{}, decimal.Zero, false
	}
	return date, amount, true
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request, input journal.PostingInput) {
	entry, err := h.journal.Submit(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.invalidate != nil {
		h.invalidate(r.Context())
	}
	h.logger.Info("event posted", "ref", entry.ExternalRef, "number", entry.Number)
	httpx.JSON(w, http.StatusCreated, postedResponse{
		EntryID:     entry.ID.String(),
		Number:      entry.Number,
		ExternalRef: entry.ExternalRef,
	})
}
