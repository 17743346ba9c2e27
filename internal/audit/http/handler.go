// Package http exposes audit checks over the REST API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quipu-ledger/quipu/internal/audit"
	"github.com/quipu-ledger/quipu/internal/platform/httpx"
)

// Handler serves the audit endpoints.
type Handler struct {
	validator *audit.Validator
	logger    *slog.Logger
}

func NewHandler(validator *audit.Validator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{validator: validator, logger: logger}
}

// Mount attaches the audit routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/audit/checks", h.run)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	report, err := h.validator.Run(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if report.Status == audit.StatusFail {
		h.logger.Warn("audit run detected failures")
	}
	httpx.JSON(w, http.StatusOK, report)
}
