package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

const maxJSONBody = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{StatusCode: status, Message: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageBody{Message: message})
}

// statusFor maps a service error to a status code and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token or user"
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrBadSignature),
		errors.Is(err, common.ErrBadIssuerAudience),
		errors.Is(err, common.ErrMalformed),
		errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "You are not authenticated"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "You are not authorized to access this resource"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrTaskCompleted):
		return http.StatusBadRequest, "Cannot delete a completed todo"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// writeServiceError logs unexpected failures and writes the mapped response.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	}
	writeError(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
