package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/rs/zerolog/log"
)

// envelope wraps every JSON response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

// writeError maps a classified error to its status and public message. Causes are logged, never
// returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := kind.HTTPStatus(s.strictProviderErrors)

	event := log.Debug()
	switch kind {
	case apperrors.KindInternal:
		event = log.Error()
	case apperrors.KindProviderAuth, apperrors.KindProviderUnavailable:
		event = log.Warn()
	}
	event.Err(err).
		Str("kind", kind.String()).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")

	writeJSON(w, status, envelope{Success: false, Error: apperrors.PublicMessage(err)})
}
