package http

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kudi/internal/core"
)

func (s *Server) ruleFromRequest(req ruleRequest, id string) (core.Rule, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Rule{}, err
	}
	startDate, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Rule{}, err
	}
	currency := req.Currency
	if currency == "" {
		currency = s.baseCurrency
	}
	return core.Rule{
		ID:        id,
		Name:      req.Name,
		Amount:    core.Money{Cents: cents},
		Currency:  currency,
		Category:  req.Category,
		Frequency: core.Frequency(req.Frequency),
		StartDate: startDate,
	}, nil
}

func (s *Server) postRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	rule, err := s.ruleFromRequest(req, uuid.NewString())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rule.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.rules.Insert(r.Context(), rule); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.rules.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) putRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ruleRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	rule, err := s.ruleFromRequest(req, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rule.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.rules.UpdateRule(r.Context(), rule); err != nil {
		writeError(w, err)
		return
	}

	// The repository keeps the materialization marker; re-read for the
	// response.
	stored, err := s.rules.GetRule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleResponse(stored))
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := s.rules.DeleteRule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "rule not found: " + id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runScheduler triggers a recurring pass for the given date (default today).
// Running twice for the same date is safe.
func (s *Server) runScheduler(w http.ResponseWriter, r *http.Request) {
	eval, err := dateParam(r, "date", core.Today(s.clock))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.scheduler.Run(r.Context(), eval)
	if err != nil {
		writeError(w, err)
		return
	}

	out := runResponse{
		Date:         eval.String(),
		Materialized: make([]entryResponse, 0, len(res.Materialized)),
	}
	for _, e := range res.Materialized {
		out.Materialized = append(out.Materialized, toEntryResponse(e))
	}
	for _, issue := range res.Issues {
		out.Issues = append(out.Issues, runIssue{RuleID: issue.RuleID, Error: issue.Err.Error()})
	}
	writeJSON(w, http.StatusOK, out)
}
