package http

import (
	"net/http"

	applog "facturas/internal/log"
)

// handleSummary serves the dashboard summary for a fiscal period.
// GET /api/summary?year=2025&quarter=Q2&month=5
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}
	sel := parseSelector(r)

	summary, err := s.reports.Summary(r.Context(), uid, sel)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary failed",
			applog.FieldUserID, uid, applog.FieldPeriod, sel.Key(), "error", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// handleLedger serves the Libro de Registros view for a fiscal period.
// GET /api/ledger?year=2025&quarter=Q2
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}
	sel := parseSelector(r)

	book, err := s.reports.Ledger(r.Context(), uid, sel)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Ledger failed",
			applog.FieldUserID, uid, applog.FieldPeriod, sel.Key(), "error", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}
