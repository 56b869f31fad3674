package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-social-connect/connect"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/rs/zerolog/log"
)

func (s *Server) OAuthInitiateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.loadSession(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, patch, err := s.connect.Initiate(r.Context(), sess, connect.InitiateRequest{
			Platform:     r.URL.Query().Get("platform"),
			RedirectBase: s.redirectBase(r),
		})
		if err = s.persist(r.Context(), sess.ID, patch, err); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeSuccess(w, result, "")
	}
}

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.loadSession(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		q := r.URL.Query()
		result, patch, err := s.connect.Callback(r.Context(), sess, connect.CallbackRequest{
			Platform:         q.Get("platform"),
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
			RedirectBase:     s.redirectBase(r),
		})
		if err = s.persist(r.Context(), sess.ID, patch, err); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeSuccess(w, result, result.Message)
	}
}

func (s *Server) OAuthDisconnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.loadSession(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, patch, err := s.connect.Disconnect(r.Context(), sess, r.FormValue("platform"))
		if err = s.persist(r.Context(), sess.ID, patch, err); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeSuccess(w, result, result.Message)
	}
}

func (s *Server) OAuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.loadSession(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := s.connect.Status(r.Context(), sess)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeSuccess(w, result, "")
	}
}

// persist applies the service's patch whether or not the operation failed, since failed
// callbacks still clear pending state. The operation's own error takes precedence.
func (s *Server) persist(ctx context.Context, sessionID string, patch *sessions.Patch, opErr error) error {
	applyErr := s.applyPatch(ctx, sessionID, patch)
	if opErr != nil {
		if applyErr != nil {
			log.Err(applyErr).Str("session", sessionID).Msg("failed to clear pending oauth state")
		}
		return opErr
	}
	return applyErr
}
