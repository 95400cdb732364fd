package http

import (
	"net/http"
)

const (
	defaultInsightDays = 30
	maxInsightDays     = 366
	defaultTopN        = 5
	maxTopN            = 10
)

func (s *Server) handleSpendingInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := ParseIntParam(q, "days", defaultInsightDays, 1, maxInsightDays)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	top, err := ParseIntParam(q, "top", defaultTopN, 1, maxTopN)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	res, err := s.svc.Insights.Spending(r.Context(), ownerID(r), days, top)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMonthlyInsights(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Insights.Monthly(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePatternInsights(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Insights.Patterns(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
