package http

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"kudi/internal/core"
	"kudi/internal/services"
)

func (s *Server) postExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	occurredAt := core.Today(s.clock)
	if req.Date != "" {
		occurredAt, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.baseCurrency
	}

	entry, err := s.entries.CreateExpense(r.Context(), services.ExpenseInput{
		Name:       req.Name,
		Amount:     core.Money{Cents: cents},
		Currency:   currency,
		Category:   req.Category,
		OccurredAt: occurredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (s *Server) postTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req timeEntryRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	occurredAt := core.Today(s.clock)
	if req.Date != "" {
		var err error
		occurredAt, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	entry, err := s.entries.CreateTimeLog(r.Context(), services.TimeLogInput{
		Activity:   req.Activity,
		Duration:   req.DurationSeconds,
		OccurredAt: occurredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

// listEntries returns entries in [from, to); to defaults to the day after
// from, from defaults to the start of the current month.
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	today := core.Today(s.clock)

	from, err := dateParam(r, "from", core.StartOfMonth(today))
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := dateParam(r, "to", today.AddDays(1))
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := s.store.QueryRange(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) putExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	upd := services.ExpenseUpdate{
		Name:     req.Name,
		Amount:   core.Money{Cents: cents},
		Currency: req.Currency,
		Category: req.Category,
	}
	if req.Date != "" {
		upd.OccurredAt, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	entry, err := s.entries.UpdateExpense(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := s.entries.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "entry not found: " + id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
