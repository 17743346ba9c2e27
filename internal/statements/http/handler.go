// Package http exposes trial balance and financial statements over the
// REST API, with a Redis-backed view-model cache in front of the
// generators.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quipu-ledger/quipu/internal/ledger"
	"github.com/quipu-ledger/quipu/internal/platform/httpx"
	"github.com/quipu-ledger/quipu/internal/statements"
)

const dateLayout = "2006-01-02"

// Handler serves the report endpoints.
type Handler struct {
	ledger    *ledger.Service
	generator *statements.Generator
	cache     *ReportCache
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(ledgerSvc *ledger.Service, generator *statements.Generator, cache *ReportCache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ledger:    ledgerSvc,
		generator: generator,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Mount attaches the report routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/reports/trial-balance", h.trialBalance)
	r.Get("/api/reports/income-statement", h.incomeStatement)
	r.Get("/api/reports/balance-sheet", h.balanceSheet)
}

// InvalidateCache drops cached reports after the journal changes.
func (h *Handler) InvalidateCache(ctx context.Context) {
	h.cache.Bust(ctx)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.parseDate(r, "asOf")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	key := cacheKey("trial-balance", asOf.Format(dateLayout))
	vm, err := getOrBuild(r.Context(), h.cache, key, func(ctx context.Context) (trialBalanceVM, error) {
		tb, err := h.ledger.TrialBalance(ctx, asOf)
		if err != nil {
			return trialBalanceVM{}, err
		}
		return toTrialBalanceVM(tb), nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	from, err := h.parseDate(r, "from")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	to, err := h.parseDate(r, "to")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	key := cacheKey("income-statement", from.Format(dateLayout), to.Format(dateLayout))
	vm, err := getOrBuild(r.Context(), h.cache, key, func(ctx context.Context) (incomeStatementVM, error) {
		is, err := h.generator.IncomeStatement(ctx, from, to)
		if err != nil {
			return incomeStatementVM{}, err
		}
		return toIncomeStatementVM(is), nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.parseDate(r, "asOf")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	key := cacheKey("balance-sheet", asOf.Format(dateLayout))
	vm, err := getOrBuild(r.Context(), h.cache, key, func(ctx context.Context) (balanceSheetVM, error) {
		bs, err := h.generator.BalanceSheet(ctx, asOf)
		if err != nil {
			return balanceSheetVM{}, err
		}
		return toBalanceSheetVM(bs), nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

// parseDate reads a query date, defaulting missing from/asOf bounds to
// sensible period edges.
func (h *Handler) parseDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		switch name {
		case "from":
			now := h.now()
			return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
		default:
			return h.now().UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Parse(dateLayout, raw)
}
