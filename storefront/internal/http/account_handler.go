package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/storefront/internal/backend"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// Accounts is the identity and order-history side of the orders service.
type Accounts interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Profile(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.User, error)
	ListOrders(ctx context.Context, token string) ([]domain.OrderReceipt, error)
}

var _ Accounts = (*backend.Client)(nil)

// AccountHandler passes account calls through to the orders service.
type AccountHandler struct {
	accounts Accounts
	logger   *zap.Logger
	timeout  time.Duration
}

func NewAccountHandler(accounts Accounts, logger *zap.Logger, timeout time.Duration) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger, timeout: timeout}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.accounts.Register(ctx, reg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.accounts.Login(ctx, creds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.accounts.Profile(ctx, getTokenFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.accounts.UpdateProfile(ctx, getTokenFromContext(r.Context()), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.accounts.ListOrders(ctx, getTokenFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.OrderReceipt{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *AccountHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleError(w, logger.WithContext(r.Context(), h.logger), err)
}
