package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	"github.com/fjod/go_bookstore/orders-service/internal/service"
)

type Accounts interface {
	Register(ctx context.Context, reg service.Registration) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, upd service.ProfileUpdate) (*domain.User, error)
}

var _ Accounts = (*service.AccountService)(nil)

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountHandler struct {
	accounts Accounts
	logger   *zap.Logger
	timeout  time.Duration
}

func NewAccountHandler(accounts Accounts, logger *zap.Logger, timeout time.Duration) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger, timeout: timeout}
}

// Register handles POST /api/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.accounts.Register(ctx, req)
	if err != nil {
		h.fail(w, err, "registration failed", "Server error")
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// Login handles POST /api/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, err, "login failed", "Server error")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetProfile handles GET /api/user/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.accounts.Profile(ctx, userIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err, "profile lookup failed", "Server error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/user/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.accounts.UpdateProfile(ctx, userIDFromContext(r.Context()), req)
	if err != nil {
		h.fail(w, err, "profile update failed", "Update failed")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) fail(w http.ResponseWriter, err error, logMsg, clientMsg string) {
	if handleAccountError(w, err) {
		return
	}
	h.logger.Error(logMsg, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", clientMsg)
}
