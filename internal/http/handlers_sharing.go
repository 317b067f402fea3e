package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/log"
)

type shareRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	shares, err := s.finance.ListShares(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	grant, err := s.finance.ShareDashboard(r.Context(), userID(r), req.Email)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.RevokeShare(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
