package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/starmatch/internal/profiles"
)

// mountProfiles registers the profile card routes.
func (s *Server) mountProfiles(r chi.Router) {
	r.Get("/profiles", s.handleListProfiles)
	r.Post("/profiles", s.handleAddProfile)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.profiles.List())
}

// addProfileReq carries the handle typed into the card form.
type addProfileReq struct {
	Handle string `json:"handle"`
}

// handleAddProfile looks the handle up and appends its card. Lookup
// failures map to 404 (unknown handle) or 502 (upstream trouble).
func (s *Server) handleAddProfile(w http.ResponseWriter, r *http.Request) {
	var req addProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	rec, err := s.profiles.LookupAndAppend(r.Context(), req.Handle)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, rec)
	case errors.Is(err, profiles.ErrEmptyHandle):
		writeError(w, http.StatusBadRequest, "empty_handle")
	case errors.Is(err, profiles.ErrNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found")
	case errors.Is(err, profiles.ErrMalformed):
		writeError(w, http.StatusBadGateway, "malformed_profile")
	default:
		writeError(w, http.StatusBadGateway, "lookup_failed")
	}
}
