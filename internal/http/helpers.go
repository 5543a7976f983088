package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"kudi/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateID),
		errors.Is(err, core.ErrDuplicateRule),
		errors.Is(err, core.ErrAlreadyLogged),
		errors.Is(err, core.ErrRuleRewind):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDuration),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyActivity),
		errors.Is(err, core.ErrEmptyID),
		errors.Is(err, core.ErrUnknownFrequency),
		errors.Is(err, core.ErrUnknownKind):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// dateParam reads a YYYY-MM-DD query parameter, falling back to the given
// default when absent.
func dateParam(r *http.Request, name string, fallback core.Date) (core.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return core.ParseDate(v)
}
