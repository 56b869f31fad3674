package server

import (
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/rs/zerolog/log"
)

// DevSessionResult is returned by the DEV session endpoint.
type DevSessionResult struct {
	UserID string         `json:"userId"`
	Plan   platforms.Plan `json:"plan"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, map[string]string{"status": "ok"}, "")
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Error: "Not found"})
	}
}

// DevSessionHandler signs a user in without the external login service. Only registered in DEV.
func (s *Server) DevSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.FormValue("userId"))
		if userID == "" {
			s.writeError(w, r, apperrors.Validation("userId is required"))
			return
		}
		plan, err := platforms.ParsePlan(r.FormValue("plan"))
		if err != nil {
			s.writeError(w, r, apperrors.Validation(err.Error()))
			return
		}

		sess := &sessions.Session{
			UserID: userID,
			Plan:   plan,
		}
		id, err := s.store.Create(r.Context(), sess)
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(err, apperrors.KindInternal, "failed to create session"))
			return
		}
		if err := s.saveSessionID(w, r, id); err != nil {
			s.writeError(w, r, apperrors.Wrap(err, apperrors.KindInternal, "failed to set session cookie"))
			return
		}

		log.Info().Str("user", userID).Str("plan", string(plan)).Msg("dev session created")
		writeSuccess(w, DevSessionResult{UserID: userID, Plan: plan}, "Session created")
	}
}
