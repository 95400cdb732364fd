package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.Get(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err, "Settings not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "Settings not found")
		return
	}
	st, err := s.svc.Settings.Update(r.Context(), ownerID(r), patch)
	if err != nil {
		writeError(w, r, err, "Settings not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
