package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/starmatch/internal/results"
)

// lbRes is returned by /results/leaderboard.
type lbRes struct {
	Date string          `json:"date"`
	Top  []results.LBRow `json:"top"`
}

// handleLeaderboard returns the fastest wins for ?date=YYYY-MM-DD (default today, UTC).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = results.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), date, 20)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}

// handleMyStats returns the signed-in player's counters.
func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	st, err := s.results.PlayerStats(r.Context(), me.ID)
	if errors.Is(err, results.ErrNoUser) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
