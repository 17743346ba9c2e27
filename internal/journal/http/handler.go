// Package http exposes the journal engine over the REST API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quipu-ledger/quipu/internal/journal"
	"github.com/quipu-ledger/quipu/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

type lineRequest struct {
	AccountCode string `json:"accountCode" validate:"required,max=16"`
	Debit       string `json:"debit" validate:"omitempty"`
	Credit      string `json:"credit" validate:"omitempty"`
}

type postRequest struct {
	Number      int64         `json:"number" validate:"omitempty,min=1"`
	Date        string        `json:"date" validate:"required"`
	Concept     string        `json:"concept" validate:"required,max=240"`
	ExternalRef string        `json:"externalReference" validate:"omitempty,max=120"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required,max=240"`
}

type lineResponse struct {
	AccountCode string `json:"accountCode"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

type entryResponse struct {
	ID          string         `json:"id"`
	Number      int64          `json:"number"`
	Date        string         `json:"date"`
	Concept     string         `json:"concept"`
	ExternalRef string         `json:"externalReference,omitempty"`
	Status      string         `json:"status"`
	ReversalOf  string         `json:"reversalOf,omitempty"`
	ReversedBy  string         `json:"reversedBy,omitempty"`
	VoidReason  string         `json:"voidReason,omitempty"`
	Lines       []lineResponse `json:"lines"`
}

// Handler serves journal endpoints.
type Handler struct {
	svc        *journal.Service
	validate   *validator.Validate
	logger     *slog.Logger
	invalidate func(context.Context)
}

func NewHandler(svc *journal.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

// WithCacheInvalidator registers a callback fired after every successful
// posting or void, so cached reports never outlive the journal state.
func (h *Handler) WithCacheInvalidator(fn func(context.Context)) *Handler {
	h.invalidate = fn
	return h
}

func (h *Handler) journalChanged(ctx context.Context) {
	if h.invalidate != nil {
		h.invalidate(ctx)
	}
}

// Mount attaches the journal routes.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/journal", h.post)
	r.Get("/api/journal", h.query)
	r.Get("/api/journal/{id}", h.get)
	r.Post("/api/journal/{id}/void", h.void)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := toPostingInput(req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.svc.Submit(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.journalChanged(r.Context())
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Entry ID", err.Error())
		return
	}
	var req voidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reversal, err := h.svc.Void(r.Context(), journal.VoidInput{EntryID: id, Reason: req.Reason})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.journalChanged(r.Context())
	httpx.JSON(w, http.StatusCreated, toEntryResponse(reversal))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Entry ID", err.Error())
		return
	}
	entry, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	entries, err := h.svc.Query(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (journal.Filter, error) {
	var filter journal.Filter
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return journal.Filter{}, err
		}
		filter.From = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return journal.Filter{}, err
		}
		filter.To = parsed
	}
	filter.AccountCode = r.URL.Query().Get("account")
	return filter, nil
}

func toPostingInput(req postRequest) (journal.PostingInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return journal.PostingInput{}, err
	}
	lines := make([]journal.LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		debit, err := parseAmount(line.Debit)
		if err != nil {
			return journal.PostingInput{}, err
		}
		credit, err := parseAmount(line.Credit)
		if err != nil {
			return journal.PostingInput{}, err
		}
		lines = append(lines, journal.LineInput{AccountCode: line.AccountCode, Debit: debit, Credit: credit})
	}
	return journal.PostingInput{
		Number:      req.Number,
		Date:        date,
		Concept:     req.Concept,
		ExternalRef: req.ExternalRef,
		Lines:       lines,
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func toEntryResponse(e journal.Entry) entryResponse {
	out := entryResponse{
		ID:          e.ID.String(),
		Number:      e.Number,
		Date:        e.Date.Format(dateLayout),
		Concept:     e.Concept,
		ExternalRef: e.ExternalRef,
		Status:      string(e.Status),
		VoidReason:  e.VoidReason,
	}
	if e.ReversalOf != nil {
		out.ReversalOf = e.ReversalOf.String()
	}
	if e.ReversedBy != nil {
		out.ReversedBy = e.ReversedBy.String()
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{
			AccountCode: line.AccountCode,
			Debit:       line.Debit.StringFixed(2),
			Credit:      line.Credit.StringFixed(2),
		})
	}
	return out
}
