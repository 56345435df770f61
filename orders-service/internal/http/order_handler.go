package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	"github.com/fjod/go_bookstore/orders-service/internal/service"
)

type Orders interface {
	PlaceOrder(ctx context.Context, userID string, req service.PlaceOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

var _ Orders = (*service.OrderService)(nil)

type OrderHandler struct {
	orders  Orders
	logger  *zap.Logger
	timeout time.Duration
}

func NewOrderHandler(orders Orders, logger *zap.Logger, timeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger, timeout: timeout}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Order creation failed",
			Code:  "invalid_request",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := userIDFromContext(r.Context())
	order, err := h.orders.PlaceOrder(ctx, userID, req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Order creation failed",
				Code:    "validation_failed",
				Message: verr.Message,
				Fields:  verr.Fields,
			})
			return
		}
		h.logger.Error("order creation failed", zap.String("user_id", userID), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Order creation failed"})
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// ListMyOrders handles GET /api/orders/my
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, userIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("order listing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Could not retrieve orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}
