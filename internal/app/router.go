package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	audithttp "github.com/quipu-ledger/quipu/internal/audit/http"
	coahttp "github.com/quipu-ledger/quipu/internal/coa/http"
	consolhttp "github.com/quipu-ledger/quipu/internal/consol/http"
	eventshttp "github.com/quipu-ledger/quipu/internal/events/http"
	journalhttp "github.com/quipu-ledger/quipu/internal/journal/http"
	"github.com/quipu-ledger/quipu/internal/observability"
	statementshttp "github.com/quipu-ledger/quipu/internal/statements/http"
	"github.com/quipu-ledger/quipu/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Pool    *pgxpool.Pool
	Metrics *observability.Metrics

	AccountsHandler      *coahttp.Handler
	JournalHandler       *journalhttp.Handler
	EventsHandler        *eventshttp.Handler
	ReportsHandler       *statementshttp.Handler
	ConsolidationHandler *consolhttp.Handler
	AuditHandler         *audithttp.Handler
	JobsHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.AccountsHandler != nil {
		params.AccountsHandler.Mount(r)
	}
	if params.JournalHandler != nil {
		params.JournalHandler.Mount(r)
	}
	if params.EventsHandler != nil {
		params.EventsHandler.Mount(r)
	}
	if params.ReportsHandler != nil {
		params.ReportsHandler.Mount(r)
	}
	if params.ConsolidationHandler != nil {
		params.ConsolidationHandler.Mount(r)
	}
	if params.AuditHandler != nil {
		params.AuditHandler.Mount(r)
	}
	if params.JobsHandler != nil {
		r.Route("/api/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
