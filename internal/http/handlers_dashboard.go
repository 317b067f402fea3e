package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type summaryResponse struct {
	analytics.Summary
	Period analytics.Period `json:"period"`
	Month  core.MonthKey    `json:"month,omitempty"`
}

type alertsResponse struct {
	Month  core.MonthKey         `json:"month"`
	Alerts []analytics.Alert     `json:"alerts"`
	Counts analytics.AlertCounts `json:"counts"`
}

// sharedDashboardResponse is what a share recipient sees: the owner's
// dashboard and the grant it was opened with.
type sharedDashboardResponse struct {
	Dashboard   analytics.Dashboard `json:"dashboard"`
	SharedWith  string              `json:"shared_with"`
	AccessLevel core.AccessLevel    `json:"access_level"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := parsePeriod(q)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	month, err := parseMonth(q, "month")
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	sum, err := s.finance.Summary(r.Context(), userID(r), period, month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: sum, Period: period, Month: month})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := parsePeriod(q)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	month, err := parseMonth(q, "month")
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	d, err := s.finance.Dashboard(r.Context(), userID(r), period, month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleLast12Months(w http.ResponseWriter, r *http.Request) {
	points, err := s.finance.Last12Months(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleLast30Days(w http.ResponseWriter, r *http.Request) {
	points, err := s.finance.Last30Days(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query(), "month")
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	if month == "" {
		month = core.MonthKeyFromTime(s.finance.Now())
	}
	alerts, err := s.finance.Alerts(r.Context(), userID(r), month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse{
		Month:  month,
		Alerts: alerts,
		Counts: analytics.CountAlerts(alerts),
	})
}

// handleSharedDashboard needs no bearer token; the share token in the path
// is the credential.
func (s *Server) handleSharedDashboard(w http.ResponseWriter, r *http.Request) {
	d, share, err := s.finance.SharedDashboard(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, sharedDashboardResponse{
		Dashboard:   d,
		SharedWith:  share.Email,
		AccessLevel: share.AccessLevel,
	})
}
