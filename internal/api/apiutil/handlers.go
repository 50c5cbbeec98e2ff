// internal/api/apiutil/handlers.go
package apiutil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondJSON writes v as a JSON response body.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// RespondError writes a JSON error body with the given status.
func RespondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondJSON(w, r, status, map[string]string{"error": message})
}
