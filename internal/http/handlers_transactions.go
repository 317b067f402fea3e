package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/importer/ofx"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type transactionRequest struct {
	Type        core.TransactionType `json:"type"`
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	CategoryID  string               `json:"category_id"`
	Date        core.Date            `json:"date"`
}

type importResponse struct {
	services.ImportResult
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	txs, err := s.finance.ListTransactions(r.Context(), userID(r), filter)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleCreateTransaction books a transaction; a missing date means today.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = core.DateOf(s.finance.Now())
	}

	tx, err := s.finance.AddTransaction(r.Context(), userID(r), core.Transaction{
		Type:        core.TransactionType(strings.ToLower(string(req.Type))),
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
	})
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.structured.LogTransactionWrite(r.Context(), log.OpCreate, tx.UserID, tx.ID, string(tx.Month()), tx.Amount.Cents)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch services.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	tx, err := s.finance.UpdateTransaction(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	s.structured.LogTransactionWrite(r.Context(), log.OpUpdate, tx.UserID, tx.ID, string(tx.Month()), tx.Amount.Cents)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.finance.DeleteTransaction(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	s.structured.LogTransactionWrite(r.Context(), log.OpDelete, userID(r), id, "", 0)
	w.WriteHeader(http.StatusNoContent)
}

// handleImportOFX books every entry of an OFX/QFX statement sent as the
// request body. Entries that fail are listed in the response; the rest stay
// booked.
func (s *Server) handleImportOFX(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	entries, err := ofx.Parse(r.Context(), body)
	if err != nil {
		s.writeError(w, r, log.OpImport, fmt.Errorf("%w: %v", errMalformed, err))
		return
	}

	res, err := s.finance.ImportEntries(r.Context(), userID(r), entries, r.URL.Query().Get("category"), nil)
	if err != nil && res.Imported == 0 && res.Failed == 0 {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	resp := importResponse{ImportResult: res}
	if err != nil {
		resp.Errors = strings.Split(err.Error(), "\n")
	}
	writeJSON(w, http.StatusOK, resp)
}
