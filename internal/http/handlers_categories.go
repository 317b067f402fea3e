package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type budgetRequest struct {
	Amount core.Money `json:"amount"`
}

type copyBudgetsResponse struct {
	services.CopyResult
	Error string `json:"error,omitempty"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.finance.ListCategories(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.NewCategory
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := s.finance.AddCategory(r.Context(), userID(r), req)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch services.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	c, err := s.finance.UpdateCategory(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteCategory(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetBudget sets one month's budget and leaves every other month alone.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if err := s.finance.SetMonthlyBudget(r.Context(), userID(r), chi.URLParam(r, "id"), month, req.Amount); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category_id": chi.URLParam(r, "id"),
		"month":       month,
		"amount":      req.Amount,
	})
}

// handleCopyBudgets answers 200 when every category copied and 207 with the
// partial result otherwise.
func (s *Server) handleCopyBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	res, err := s.finance.CopyBudgetsFromPreviousMonth(r.Context(), userID(r), month)
	if err != nil && len(res.Failed) == 0 {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Budget copy partially failed",
			"failed", len(res.Failed),
			log.FieldError, err)
		writeJSON(w, http.StatusMultiStatus, copyBudgetsResponse{CopyResult: res, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, copyBudgetsResponse{CopyResult: res})
}
