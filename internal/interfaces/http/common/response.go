package common

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger zerolog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("JSON エンコードに失敗")
	}
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// WriteError writes an ErrorResponse.
func WriteError(logger zerolog.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, ErrorResponse{Error: message})
}
