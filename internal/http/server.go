// Package http wires the JSON API surface. Handlers stay thin and delegate
// business rules to the service layer.
package http

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"kudi/internal/core"
	"kudi/internal/ledger"
	"kudi/internal/services"
)

// Server composes the router with the services behind each endpoint.
type Server struct {
	entries      *services.EntryService
	scheduler    *services.Scheduler
	aggregator   *services.Aggregator
	store        ledger.Ledger
	rules        ledger.RuleRepository
	limits       ledger.LimitsStore
	clock        core.Clock
	baseCurrency string
	log          *slog.Logger
	rt           *chi.Mux
}

type Deps struct {
	Entries      *services.EntryService
	Scheduler    *services.Scheduler
	Aggregator   *services.Aggregator
	Store        ledger.Ledger
	Rules        ledger.RuleRepository
	Limits       ledger.LimitsStore
	Clock        core.Clock
	BaseCurrency string
	Logger       *slog.Logger
}

func NewServer(deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(recoverer(deps.Logger))
	r.Use(metricsMiddleware)

	clock := deps.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}

	s := &Server{
		entries:      deps.Entries,
		scheduler:    deps.Scheduler,
		aggregator:   deps.Aggregator,
		store:        deps.Store,
		rules:        deps.Rules,
		limits:       deps.Limits,
		clock:        clock,
		baseCurrency: deps.BaseCurrency,
		log:          deps.Logger,
		rt:           r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) routes() {
	s.rt.Post("/api/expenses", s.postExpense)
	s.rt.Get("/api/expenses", s.listEntries)
	s.rt.Put("/api/expenses/{id}", s.putExpense)
	s.rt.Delete("/api/expenses/{id}", s.deleteEntry)

	s.rt.Post("/api/time-entries", s.postTimeEntry)

	s.rt.Post("/api/recurring", s.postRule)
	s.rt.Get("/api/recurring", s.listRules)
	s.rt.Put("/api/recurring/{id}", s.putRule)
	s.rt.Delete("/api/recurring/{id}", s.deleteRule)
	s.rt.Post("/api/recurring/run", s.runScheduler)

	s.rt.Get("/api/summary", s.getSummary)
	s.rt.Get("/api/limits", s.getLimits)
	s.rt.Put("/api/limits", s.putLimits)
	s.rt.Get("/api/warnings", s.getWarnings)

	s.rt.Get("/healthz", handleHealth)
	s.rt.Get("/readyz", handleReady)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
