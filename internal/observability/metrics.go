package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the ledger service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	entriesPosted     prometheus.Counter
	entriesVoided     prometheus.Counter
	consolidationRuns *prometheus.CounterVec
}

// NewMetrics initialises the registry with request and ledger metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quipu_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quipu_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	posted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quipu_journal_entries_posted_total",
		Help: "Journal entries accepted and posted.",
	})
	voided := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quipu_journal_entries_voided_total",
		Help: "Journal entries voided via reversal.",
	})
	consolidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quipu_consolidation_runs_total",
		Help: "Consolidation runs by balance-check outcome.",
	}, []string{"balanced"})
	registry.MustRegister(requests, duration, posted, voided, consolidations)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		entriesPosted:     posted,
		entriesVoided:     voided,
		consolidationRuns: consolidations,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// EntryPosted counts one accepted posting.
func (m *Metrics) EntryPosted() {
	if m != nil {
		m.entriesPosted.Inc()
	}
}

// EntryVoided counts one reversal.
func (m *Metrics) EntryVoided() {
	if m != nil {
		m.entriesVoided.Inc()
	}
}

// ConsolidationRun counts one consolidation run.
func (m *Metrics) ConsolidationRun(balanced bool) {
	if m != nil {
		m.consolidationRuns.WithLabelValues(strconv.FormatBool(balanced)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
