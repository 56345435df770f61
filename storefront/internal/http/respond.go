package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/checkout"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
	"github.com/fjod/go_bookstore/storefront/internal/session"
)

// ErrorResponse is the error envelope of every endpoint. Message is meant
// for the user; Error is the technical reason.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

const maxBodyBytes = 1 << 20 // 1MB

// handleError maps domain errors onto the response envelope.
func handleError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verr   *checkout.ValidationError
		subErr *checkout.SubmissionError
		be     *domain.BackendError
	)

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   verr.Message,
			Code:    "validation_failed",
			Message: verr.Message,
			Field:   verr.Field,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrAbandoned):
		respondError(w, http.StatusConflict, "checkout_abandoned", err.Error())
	case errors.Is(err, session.ErrNoCheckout):
		respondError(w, http.StatusNotFound, "no_checkout", err.Error())
	case errors.As(err, &subErr):
		status := http.StatusBadGateway
		if errors.As(err, &be) && be.StatusCode >= 400 && be.StatusCode < 500 {
			status = be.StatusCode
		}
		respondJSON(w, status, ErrorResponse{
			Error:   subErr.Error(),
			Code:    "order_failed",
			Message: subErr.Error(),
		})
	case errors.As(err, &be):
		status := http.StatusBadGateway
		if be.StatusCode >= 400 && be.StatusCode < 500 {
			status = be.StatusCode
		}
		msg := be.Message
		if msg == "" {
			msg = be.Reason
		}
		respondJSON(w, status, ErrorResponse{Error: msg, Code: be.Code, Message: be.Message})
	case errors.Is(err, catalog.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, catalog.ErrVolumeNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, circuitbreaker.ErrOpen):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "upstream timed out")
	default:
		logger.Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
