package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	r "github.com/fjod/go_bookstore/orders-service/internal/repository"
)

// PlaceOrderRequest is the body of POST /api/orders. OrderDate is optional.
type PlaceOrderRequest struct {
	ShippingInfo  domain.ShippingInfo  `json:"shippingInfo"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Items         []domain.OrderItem   `json:"items"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	OrderDate     *time.Time           `json:"orderDate,omitempty"`
}

type OrderService struct {
	orders r.OrderRepository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewOrderService(orders r.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger.Named("orders"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*domain.Order, error) {
	if err := validateOrder(req); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            s.newID(),
		UserID:        userID,
		ShippingInfo:  req.ShippingInfo,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		OrderDate:     s.now(),
	}
	if req.OrderDate != nil && !req.OrderDate.IsZero() {
		order.OrderDate = *req.OrderDate
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	return order, nil
}

// ListOrders returns the user's orders, newest order date first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func validateOrder(req PlaceOrderRequest) error {
	v := &validator{}

	si := req.ShippingInfo
	v.require("fullName", si.FullName)
	v.require("address1", si.Address1)
	v.require("city", si.City)
	v.require("stateProvince", si.StateProvince)
	v.require("zipPostal", si.ZipPostal)
	v.require("country", si.Country)
	if v.require("email", si.Email) && !emailPattern.MatchString(si.Email) {
		v.fail("email", "Please enter a valid email address.")
	}

	if !req.PaymentMethod.Valid() {
		v.fail("paymentMethod", "Please select a payment method.")
	}

	if len(req.Items) == 0 {
		v.fail("items", "An order needs at least one item.")
	}
	for i, it := range req.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		switch {
		case it.ID == "":
			v.fail(field+".id", "Every item needs an id.")
		case it.Title == "":
			v.fail(field+".title", "Every item needs a title.")
		case it.Quantity < 1:
			v.fail(field+".quantity", "Quantity must be at least 1.")
		case it.Price.IsNegative():
			v.fail(field+".price", "Price cannot be negative.")
		}
	}

	if req.TotalAmount.IsNegative() {
		v.fail("totalAmount", "Total amount cannot be negative.")
	}
	return v.err()
}
