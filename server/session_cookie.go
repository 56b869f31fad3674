package server

import (
	"context"
	"fmt"
	"net/http"

	gsessions "github.com/gorilla/sessions"
	"github.com/jrsteele09/go-social-connect/internal/config"
	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// sessionIDKey is the only value kept in the signed cookie; session data lives in the Store.
const sessionIDKey = "sid"

func newCookieStore(cfg config.Config) (*gsessions.CookieStore, error) {
	secret := cfg.GetCookieSecret()
	if len(secret) < config.MinCookieSecretLength {
		return nil, fmt.Errorf("COOKIE_SECRET must be at least %d bytes", config.MinCookieSecretLength)
	}

	store := gsessions.NewCookieStore([]byte(secret))
	store.Options = &gsessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.GetSessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   cfg.GetSecureCookies(),
		// Lax still sends the cookie on the provider's top level redirect back to the callback.
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// loadSession resolves the request's session. A missing, unreadable or expired cookie yields an
// anonymous session, which the orchestrator rejects as unauthenticated.
func (s *Server) loadSession(r *http.Request) (sessions.Session, error) {
	cookie, err := s.cookies.Get(r, s.config.GetCookieName())
	if err != nil {
		log.Debug().Err(err).Msg("ignoring unreadable session cookie")
		return sessions.Session{}, nil
	}

	id, _ := cookie.Values[sessionIDKey].(string)
	if id == "" {
		return sessions.Session{}, nil
	}

	sess, err := s.store.Get(r.Context(), id)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return sessions.Session{}, nil
	}
	if err != nil {
		return sessions.Session{}, apperrors.Wrap(err, apperrors.KindInternal, "failed to load session")
	}
	return *sess, nil
}

// saveSessionID binds id to the response's session cookie.
func (s *Server) saveSessionID(w http.ResponseWriter, r *http.Request, id string) error {
	cookie, err := s.cookies.Get(r, s.config.GetCookieName())
	if err != nil {
		// Get still returns a fresh session when the old cookie fails to decode
		log.Debug().Err(err).Msg("replacing unreadable session cookie")
	}
	cookie.Values[sessionIDKey] = id
	return cookie.Save(r, w)
}

// applyPatch persists a service's changes. Nothing is written for anonymous sessions or empty
// patches.
func (s *Server) applyPatch(ctx context.Context, id string, patch *sessions.Patch) error {
	if id == "" || patch.IsEmpty() {
		return nil
	}
	_, err := s.store.Apply(ctx, id, patch)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return apperrors.AuthenticationRequired("Authentication required")
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "failed to save session")
	}
	return nil
}
