package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const maxUpcomingDays = 366

type subscriptionRequest struct {
	Name        string                  `json:"name"`
	Provider    string                  `json:"provider"`
	Amount      core.Money              `json:"amount"`
	Frequency   core.Frequency          `json:"frequency"`
	RenewalDate core.Date               `json:"renewal_date"`
	Status      core.SubscriptionStatus `json:"status"`
	CategoryID  string                  `json:"category_id"`
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	overview, err := s.finance.ListSubscriptions(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	sub, err := s.finance.AddSubscription(r.Context(), userID(r), core.Subscription{
		Name:        req.Name,
		Provider:    req.Provider,
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		RenewalDate: req.RenewalDate,
		Status:      req.Status,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var patch services.SubscriptionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	sub, err := s.finance.UpdateSubscription(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteSubscription(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpcomingSubscriptions(w http.ResponseWriter, r *http.Request) {
	days, err := parsePositiveInt(r.URL.Query(), "days", services.UpcomingWindow, maxUpcomingDays)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	upcoming, err := s.finance.Upcoming(r.Context(), userID(r), days)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, upcoming)
}
