package http

import (
	"net/http"

	"kudi/internal/core"
	"kudi/internal/services"
)

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	eval, err := dateParam(r, "date", core.Today(s.clock))
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.aggregator.Summarize(r.Context(), eval)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) getLimits(w http.ResponseWriter, r *http.Request) {
	l, err := s.limits.Limits(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, limitsPayload{
		MonthlyCents:  l.MonthlyCents,
		CategoryCents: l.CategoryCents,
	})
}

func (s *Server) putLimits(w http.ResponseWriter, r *http.Request) {
	var req limitsPayload
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.MonthlyCents < 0 {
		badRequest(w, "monthly limit cannot be negative")
		return
	}
	for name, cents := range req.CategoryCents {
		if cents < 0 {
			badRequest(w, "limit for "+name+" cannot be negative")
			return
		}
	}

	l := core.Limits{
		MonthlyCents:  req.MonthlyCents,
		CategoryCents: req.CategoryCents,
	}
	if err := s.limits.SetLimits(r.Context(), l); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// getWarnings reports the budget limits exceeded for the month containing the
// given date.
func (s *Server) getWarnings(w http.ResponseWriter, r *http.Request) {
	eval, err := dateParam(r, "date", core.Today(s.clock))
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.aggregator.Summarize(r.Context(), eval)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.limits.Limits(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	warnings := services.CheckLimits(summary, l)
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, warningsResponse{Date: eval.String(), Warnings: warnings})
}
