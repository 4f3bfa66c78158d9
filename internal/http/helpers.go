package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"facturas/internal/core"
)

// userIDHeader identifies the acting user. Every /api route requires it.
const userIDHeader = "X-User-ID"

func userID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(userIDHeader))
	return id, id != ""
}

// parseSelector builds a period selector from query parameters.
// year defaults to empty (rejected by Validate), quarter to "all", month to 0.
func parseSelector(r *http.Request) core.PeriodSelector {
	q := r.URL.Query()

	sel := core.PeriodSelector{
		Year:    strings.TrimSpace(q.Get("year")),
		Quarter: core.QuarterAll,
		Month:   core.MonthAll,
	}
	if v := strings.TrimSpace(q.Get("quarter")); v != "" {
		sel.Quarter = core.Quarter(v)
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			// Force selector validation to fail with a stable error
			m = -1
		}
		sel.Month = m
	}
	return sel
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondDomainError maps sentinel domain errors onto HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidSelector),
		errors.Is(err, core.ErrMalformedInput),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrEmptyClient):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON request body into dst, capping it at 1 MiB.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
