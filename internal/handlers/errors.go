package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/models"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx JSON response
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON writes data as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// statusForError maps a domain error to its HTTP status
func statusForError(err error) int {
	switch {
	case models.IsValidation(err):
		return http.StatusBadRequest
	case models.IsChecksum(err):
		return http.StatusUnauthorized
	case models.IsNotFound(err):
		return http.StatusNotFound
	case models.IsConflict(err), models.IsState(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err into a JSON error response. Infrastructure
// errors are logged and hidden from the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	resp := errorResponse{Error: err.Error()}

	var validation *models.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}

	if status == http.StatusInternalServerError {
		log.Printf("[%s %s] request %s failed: %v", r.Method, r.URL.Path, middleware.GetRequestID(r.Context()), err)
		resp.Error = "internal server error"
	}

	writeJSON(w, status, resp)
}

// currentUser returns the authenticated user id. Routes using it sit
// behind middleware.RequireUser.
func currentUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	return userID, ok
}

// pathInt parses a positive integer URL parameter
func pathInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		return 0, models.NewValidation(name, "must be a positive integer")
	}
	return value, nil
}

// decodeJSON decodes a bounded JSON request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return models.NewValidation("body", "invalid JSON body")
	}
	return nil
}
