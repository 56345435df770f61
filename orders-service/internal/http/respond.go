package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/orders-service/internal/service"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondUserError is for errors the client should show as is.
func respondUserError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// handleAccountError covers the errors shared by the auth and profile routes.
// It reports false for anything it does not know.
func handleAccountError(w http.ResponseWriter, err error) bool {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   verr.Message,
			Code:    "validation_failed",
			Message: verr.Message,
			Fields:  verr.Fields,
		})
	case errors.Is(err, service.ErrUserExists):
		respondUserError(w, http.StatusBadRequest, "user_exists", "User already exists")
	case errors.Is(err, service.ErrUserNotFound):
		respondUserError(w, http.StatusBadRequest, "user_not_found", "User does not exist")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondUserError(w, http.StatusBadRequest, "invalid_credentials", "Invalid credentials")
	default:
		return false
	}
	return true
}
