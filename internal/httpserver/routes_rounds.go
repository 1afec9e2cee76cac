// internal/httpserver/routes_rounds.go
//
// HTTP routes for StarMatch rounds.
// Exposes four endpoints under /rounds:
//   - POST /rounds             → deal a new round for the caller (replaces and stops the old one)
//   - GET  /rounds/current     → caller's current round
//   - GET  /rounds/{id}        → any round by id (read-only)
//   - POST /rounds/{id}/toggle → toggle one play number in the caller's round
//
// The server owns the countdown: each round ticks once per TICK_INTERVAL
// until it is won, lost, or replaced. When a round finishes its outcome is
// recorded once in round_results.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/internal/game"
	"github.com/robalobadob/starmatch/internal/results"
	"github.com/robalobadob/starmatch/internal/store"
)

// mountRounds registers all /rounds routes.
func (s *Server) mountRounds(r chi.Router) {
	r.Route("/rounds", func(r chi.Router) {
		r.Post("/", s.handleNewRound)
		r.Get("/current", s.handleCurrentRound)
		r.Get("/{id}", s.handleGetRound)
		r.Post("/{id}/toggle", s.handleToggle)
	})
}

// caller identifies who is playing: an account or an anonymous cookie.
type caller struct {
	UserID string
	AnonID string
}

// key is the round-table owner key.
func (c caller) key() string {
	if c.UserID != "" {
		return "user:" + c.UserID
	}
	return "anon:" + c.AnonID
}

// callerOf returns the signed-in user, or the anonymous cookie id (issuing
// one if needed).
func (s *Server) callerOf(w http.ResponseWriter, r *http.Request) caller {
	if me := userFrom(r.Context()); me != nil {
		return caller{UserID: me.ID}
	}
	return caller{AnonID: s.ensureAnonID(w, r)}
}

// -----------------------------------------------------------------------------
// POST /rounds

// newRoundReq is the optional body of POST /rounds.
type newRoundReq struct {
	Target int `json:"target"` // honoured only with DEBUG_TARGETS
}

// handleNewRound deals a round, installs it as the caller's current one, and
// starts its countdown.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	var rd *game.Round
	if req.Target != 0 && s.cfg.DebugTargets {
		var ok bool
		if rd, ok = game.NewRoundWithTarget(req.Target, s.src); !ok {
			writeError(w, http.StatusBadRequest, "target_out_of_range")
			return
		}
	} else {
		rd = game.NewRound(s.src)
	}

	who := s.callerOf(w, r)
	rd.OnFinish(s.recordResult(who))
	if err := s.rounds.Replace(r.Context(), who.key(), rd); err != nil {
		log.Error().Err(err).Msg("store round")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	rd.StartClock(s.cfg.TickInterval)

	log.Info().Str("round", rd.ID).Str("owner", who.key()).Int("target", rd.Target()).Msg("round dealt")
	writeJSON(w, http.StatusCreated, rd.Snapshot())
}

// recordResult returns the finish hook that persists a round's outcome.
// It may run on the round's clock goroutine, after the request is gone.
func (s *Server) recordResult(who caller) func(game.Snapshot) {
	return func(snap game.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := s.results.Record(ctx, results.Result{
			RoundID:     snap.ID,
			UserID:      who.UserID,
			AnonymousID: who.AnonID,
			Status:      string(snap.Status),
			SecondsLeft: snap.SecondsLeft,
			Matched:     snap.Matched(),
			Date:        results.DateKey(snap.StartedAt),
		})
		if err != nil {
			log.Warn().Err(err).Str("round", snap.ID).Msg("record result")
			return
		}
		log.Info().Str("round", snap.ID).Str("status", string(snap.Status)).Int("secondsLeft", snap.SecondsLeft).Msg("round finished")
	}
}

// -----------------------------------------------------------------------------
// GET /rounds/current, GET /rounds/{id}

func (s *Server) handleCurrentRound(w http.ResponseWriter, r *http.Request) {
	rd, err := s.rounds.Current(r.Context(), s.callerOf(w, r).key())
	if err != nil {
		writeError(w, http.StatusNotFound, "no_round")
		return
	}
	writeJSON(w, http.StatusOK, rd.Snapshot())
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	rd, err := s.rounds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, rd.Snapshot())
}

// -----------------------------------------------------------------------------
// POST /rounds/{id}/toggle

// toggleReq is the request payload for /rounds/{id}/toggle.
type toggleReq struct {
	Number int `json:"number"`
}

// handleToggle applies one click. Clicks on used numbers or finished rounds
// are not errors: the unchanged snapshot comes back.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	id := chi.URLParam(r, "id")
	rd, err := s.rounds.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup_failed")
		return
	}
	owner, err := s.rounds.Owner(r.Context(), id)
	if err != nil || owner != s.callerOf(w, r).key() {
		writeError(w, http.StatusConflict, "not_your_round")
		return
	}

	rd.Toggle(req.Number)
	writeJSON(w, http.StatusOK, rd.Snapshot())
}
