package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/storefront/internal/checkout"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

type CheckoutHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

func NewCheckoutHandler(sessions Sessions, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, logger: logger}
}

type SelectPaymentRequestDTO struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// CheckoutView is the checkout state with the step spelled out.
type CheckoutView struct {
	domain.CheckoutState
	StepName string `json:"stepName"`
}

func newCheckoutView(c *checkout.Controller) CheckoutView {
	st := c.State()
	return CheckoutView{CheckoutState: st, StepName: st.Step.String()}
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.BeginCheckout(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCheckoutView(c))
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withCheckout(w, r, func(*checkout.Controller) error { return nil })
}

func (h *CheckoutHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	var info domain.ShippingInfo
	if err := decodeJSON(w, r, &info); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.withCheckout(w, r, func(c *checkout.Controller) error { return c.UpdateShipping(info) })
}

func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	var req SelectPaymentRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.withCheckout(w, r, func(c *checkout.Controller) error { return c.SelectPayment(req.PaymentMethod) })
}

func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withCheckout(w, r, (*checkout.Controller).Next)
}

func (h *CheckoutHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.withCheckout(w, r, (*checkout.Controller).Previous)
}

// PlaceOrder submits the order. The submission outlives a dropped client
// connection; the controller bounds it with its own timeout.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.Checkout(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	conf, err := c.PlaceOrder(ctx, getTokenFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger.WithContext(r.Context(), h.logger).Info("order placed",
		zap.String("order_id", conf.OrderID), zap.String("total", conf.Total))
	respondJSON(w, http.StatusCreated, conf)
}

func (h *CheckoutHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.LeaveCheckout(r.Context(), getUserIDFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) withCheckout(w http.ResponseWriter, r *http.Request, op func(*checkout.Controller) error) {
	c, err := h.sessions.Checkout(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := op(c); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutView(c))
}

func (h *CheckoutHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleError(w, logger.WithContext(r.Context(), h.logger), err)
}
