package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"

	"github.com/go-chi/chi/v5"
)

const msgTransactionNotFound = "Transaction not found"

// transactionRequest is the body of POST and PUT /transactions. Absent
// fields stay nil so PUT only touches what the client sent.
type transactionRequest struct {
	Type        *string     `json:"type"`
	Amount      *FlexAmount `json:"amount"`
	Category    *string     `json:"category"`
	Description *string     `json:"description"`
	Date        *FlexDate   `json:"date"`
	Tags        *[]string   `json:"tags"`
}

func (req transactionRequest) transaction() core.Transaction {
	var t core.Transaction
	if req.Type != nil {
		t.Type = core.TransactionType(strings.ToLower(strings.TrimSpace(*req.Type)))
	}
	if req.Amount != nil {
		t.Amount = req.Amount.Decimal
	}
	if req.Category != nil {
		t.Category = sanitizeInput(*req.Category)
	}
	if req.Description != nil {
		t.Description = sanitizeInput(*req.Description)
	}
	if req.Date != nil {
		t.Date = req.Date.Time
	}
	if req.Tags != nil {
		t.Tags = *req.Tags
	}
	return t
}

func (req transactionRequest) patch() core.TransactionPatch {
	var p core.TransactionPatch
	if req.Type != nil {
		typ := core.TransactionType(strings.ToLower(strings.TrimSpace(*req.Type)))
		p.Type = &typ
	}
	if req.Amount != nil {
		p.Amount = &req.Amount.Decimal
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		p.Category = &category
	}
	if req.Description != nil {
		description := sanitizeInput(*req.Description)
		p.Description = &description
	}
	if req.Date != nil && !req.Date.IsZero() {
		p.Date = &req.Date.Time
	}
	p.Tags = req.Tags
	return p
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), ownerID(r), filter)
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	t, err := s.svc.Transactions.Create(r.Context(), ownerID(r), req.transaction())
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Transactions.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	t, err := s.svc.Transactions.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, msgTransactionNotFound)
		return
	}
	NewJSONResponse().Message("Transaction deleted").Write(w)
}
