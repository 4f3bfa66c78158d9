package http

import (
	"net/http"

	"facturas/internal/core"
	applog "facturas/internal/log"
)

type createdResponse struct {
	ID string `json:"id"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// handleCreateInvoice registers a new invoice.
// POST /api/invoices
func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	var inv core.Invoice
	if err := decodeBody(r, &inv); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	inv.ClientID = sanitizeInput(inv.ClientID)

	id, err := s.records.CreateInvoice(r.Context(), uid, inv)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create invoice failed", applog.FieldUserID, uid, "error", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// handleUpdateInvoiceStatus transitions an invoice between statuses.
// PATCH /api/invoices/{id}/status
func (s *Server) handleUpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	id := r.PathValue("id")
	if err := s.records.UpdateInvoiceStatus(r.Context(), uid, id, core.InvoiceStatus(req.Status)); err != nil {
		s.logger.ErrorContext(r.Context(), "Update invoice status failed",
			applog.FieldUserID, uid, applog.FieldRecordID, id, "error", err)
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/invoices/{id}
func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	id := r.PathValue("id")
	if err := s.records.DeleteInvoice(r.Context(), uid, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateTransaction registers a standalone income or expense entry.
// POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	var tx core.Transaction
	if err := decodeBody(r, &tx); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	tx.Description = sanitizeInput(tx.Description)
	tx.CategoryID = sanitizeInput(tx.CategoryID)

	id, err := s.records.CreateTransaction(r.Context(), uid, tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create transaction failed", applog.FieldUserID, uid, "error", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// DELETE /api/transactions/{id}
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	id := r.PathValue("id")
	if err := s.records.DeleteTransaction(r.Context(), uid, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateQuote registers a quote. Quotes never touch tax totals.
// POST /api/quotes
func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	var q core.Quote
	if err := decodeBody(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	q.ClientID = sanitizeInput(q.ClientID)

	id, err := s.records.CreateQuote(r.Context(), uid, q)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create quote failed", applog.FieldUserID, uid, "error", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// PATCH /api/quotes/{id}/status
func (s *Server) handleUpdateQuoteStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	id := r.PathValue("id")
	if err := s.records.UpdateQuoteStatus(r.Context(), uid, id, core.QuoteStatus(req.Status)); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/quotes/{id}
func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	id := r.PathValue("id")
	if err := s.records.DeleteQuote(r.Context(), uid, id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
