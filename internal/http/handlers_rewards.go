package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"

	"github.com/go-chi/chi/v5"
)

const msgChallengeNotFound = "Challenge not found"

type challengeRequest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         string      `json:"type"`
	TargetAmount *FlexAmount `json:"targetAmount"`
	StartDate    *FlexDate   `json:"startDate"`
	EndDate      *FlexDate   `json:"endDate"`
}

type progressRequest struct {
	CurrentAmount *FlexAmount `json:"currentAmount"`
}

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.svc.Challenges.Badges(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := s.svc.Challenges.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, challenges)
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}

	in := core.Challenge{
		Title:       sanitizeInput(req.Title),
		Description: sanitizeInput(req.Description),
		Type:        core.ChallengeType(strings.ToLower(strings.TrimSpace(req.Type))),
	}
	if req.TargetAmount != nil {
		in.TargetAmount = req.TargetAmount.Decimal
	}
	if req.StartDate != nil {
		in.StartDate = req.StartDate.Time
	}
	if req.EndDate != nil {
		// A bare end date keeps the challenge open through that whole day.
		in.EndDate = req.EndDate.EndOfDay()
	}

	c, err := s.svc.Challenges.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Challenges.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Challenges.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	NewJSONResponse().Message("Challenge deleted").Write(w)
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	if req.CurrentAmount == nil {
		writeError(w, r, core.ErrNegativeProgress, msgChallengeNotFound)
		return
	}

	c, err := s.svc.Challenges.UpdateProgress(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.CurrentAmount.Decimal)
	if err != nil {
		writeError(w, r, err, msgChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
