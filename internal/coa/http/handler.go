// Package http exposes the chart of accounts over the REST API.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quipu-ledger/quipu/internal/coa"
	"github.com/quipu-ledger/quipu/internal/platform/httpx"
)

type accountRequest struct {
	Code       string `json:"code" validate:"required,max=16"`
	Name       string `json:"name" validate:"required,max=120"`
	Type       string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentCode string `json:"parentCode" validate:"omitempty,max=16"`
}

type accountResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nature     string `json:"nature"`
	ParentCode string `json:"parentCode,omitempty"`
	Level      int    `json:"level"`
}

// Handler serves account directory endpoints.
type Handler struct {
	svc      *coa.Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(svc *coa.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

// Mount attaches the account routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/accounts", h.list)
	r.Post("/api/accounts", h.register)
	r.Get("/api/accounts/{code}", h.get)
	r.Get("/api/accounts/{code}/children", h.children)
	r.Delete("/api/accounts/{code}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(accounts))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(account))
}

func (h *Handler) children(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.Children(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(accounts))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.svc.Register(r.Context(), coa.Account{
		Code:       req.Code,
		Name:       req.Name,
		Type:       coa.Type(req.Type),
		ParentCode: req.ParentCode,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("account registered", slog.String("code", account.Code))
	httpx.JSON(w, http.StatusCreated, toResponse(account))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.svc.Delete(r.Context(), code); err != nil {
		if errors.Is(err, coa.ErrHasChildren) || errors.Is(err, coa.ErrHasPostings) {
			httpx.Problem(w, http.StatusConflict, "Account In Use", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("account deleted", slog.String("code", code))
	w.WriteHeader(http.StatusNoContent)
}

func toResponse(a coa.Account) accountResponse {
	return accountResponse{
		Code:       a.Code,
		Name:       a.Name,
		Type:       string(a.Type),
		Nature:     string(a.Type.Nature()),
		ParentCode: a.ParentCode,
		Level:      a.Level,
	}
}

func toResponses(accounts []coa.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, toResponse(account))
	}
	return out
}
