// Package http exposes consolidation runs and snapshots over the REST
// API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quipu-ledger/quipu/internal/consol"
	"github.com/quipu-ledger/quipu/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

type runRequest struct {
	PeriodStart string `json:"periodStart" validate:"required"`
	PeriodEnd   string `json:"periodEnd" validate:"required"`
}

// Handler serves consolidation endpoints.
type Handler struct {
	svc      *consol.Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(svc *consol.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

// Mount attaches the consolidation routes.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/consolidation/run", h.run)
	r.Get("/api/consolidation/snapshots", h.list)
	r.Get("/api/consolidation/snapshots/{id}", h.get)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	periodStart, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	periodEnd, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	if periodEnd.Before(periodStart) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Period", "periodEnd precedes periodStart")
		return
	}
	snapshot, err := h.svc.Run(r.Context(), periodStart, periodEnd)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("consolidation requested",
		slog.String("snapshot", snapshot.ID.String()),
		slog.Bool("balanced", snapshot.Balanced))
	httpx.JSON(w, http.StatusCreated, snapshot)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.svc.Snapshots(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshots)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Snapshot ID", err.Error())
		return
	}
	snapshot, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}
