package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sproutplan/sproutplan-api/internal/database"
	"github.com/sproutplan/sproutplan-api/internal/validation"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSON wraps data in the success envelope.
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

// sanitizeErrorMessage truncates long messages so internal detail does
// not leak into client responses.
func sanitizeErrorMessage(message string) string {
	if len(message) > 200 {
		return message[:200] + "..."
	}
	return message
}

// respondJSONError wraps an error in the failure envelope.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, map[string]any{
		"success": false,
		"error":   errorType,
		"message": sanitizeErrorMessage(message),
	})
}

// respondDomainError maps repository and validation errors to HTTP
// status codes. fallback is the client-safe message for unexpected
// errors, which are never echoed verbatim.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *validation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationErr.Error())
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Resource not found")
	case errors.Is(err, database.ErrUsernameTaken):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Username already registered")
	case errors.Is(err, database.ErrConflict):
		respondJSONError(w, http.StatusConflict, "Conflict", "Resource was modified concurrently")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", fallback)
	}
}
