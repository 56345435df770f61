package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/pkg/money"
	"github.com/fjod/go_bookstore/storefront/internal/cart"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

const untitled = "Untitled"

// PlaceOrder submits the cart from the Review step. On success the cart is
// cleared and the checkout moves to Confirmation. On failure the state is
// left in Review with a user facing message. It is never retried here.
func (c *Controller) PlaceOrder(ctx context.Context, token string) (*domain.OrderConfirmation, error) {
	req, err := c.beginSubmission()
	if err != nil {
		return nil, err
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	receipt, callErr := c.orders.CreateOrder(submitCtx, token, *req)
	cancel()

	return c.finishSubmission(req, receipt, callErr)
}

func (c *Controller) beginSubmission() (*domain.OrderRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(); err != nil {
		return nil, err
	}
	if c.step != domain.StepReview {
		return nil, &IllegalTransitionError{From: c.step, To: domain.StepConfirmation}
	}

	lines := c.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if verr := ValidateShipping(c.shipping); verr != nil {
		c.message = verr.Message
		return nil, verr
	}
	if verr := ValidatePayment(c.payment); verr != nil {
		c.message = verr.Message
		return nil, verr
	}

	req := buildOrderRequest(lines, c.shipping, c.payment, c.now())
	c.submitting = true
	c.message = ""
	return req, nil
}

// finishSubmission records the outcome. The cart is cleared after c.mu is
// released, since clearing runs the persistence observers.
func (c *Controller) finishSubmission(req *domain.OrderRequest, receipt *domain.OrderReceipt, callErr error) (*domain.OrderConfirmation, error) {
	conf, err := c.recordOutcome(req, receipt, callErr)
	if err != nil {
		return nil, err
	}
	c.cart.ClearCart()
	return conf, nil
}

func (c *Controller) recordOutcome(req *domain.OrderRequest, receipt *domain.OrderReceipt, callErr error) (*domain.OrderConfirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitting = false
	if c.abandoned {
		c.logger.Info("discarding order result for abandoned checkout", zap.Bool("failed", callErr != nil))
		return nil, ErrAbandoned
	}

	if callErr != nil {
		msg := GenericSubmissionMessage
		var be *domain.BackendError
		if errors.As(callErr, &be) && be.Message != "" {
			msg = be.Message
		}
		subErr := &SubmissionError{Message: msg, Err: callErr}
		c.message = subErr.Error()
		c.logger.Warn("order submission failed", zap.Error(callErr))
		return nil, subErr
	}

	conf := confirmationFrom(req, receipt)
	if err := c.moveLocked(domain.StepConfirmation); err != nil {
		return nil, fmt.Errorf("confirm order %s: %w", conf.OrderID, err)
	}
	c.result = conf

	res := *conf
	return &res, nil
}

func buildOrderRequest(lines []domain.CartLine, shipping domain.ShippingInfo, method domain.PaymentMethod, at time.Time) *domain.OrderRequest {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		title := l.Item.VolumeInfo.Title
		if title == "" {
			title = untitled
		}
		items = append(items, domain.OrderItem{
			ID:       l.Identity,
			Title:    title,
			Quantity: l.Quantity,
			Price:    money.Parse(l.UnitPrice),
		})
	}
	return &domain.OrderRequest{
		ShippingInfo:  shipping,
		PaymentMethod: method,
		Items:         items,
		TotalAmount:   money.Parse(cart.Total(lines)),
		OrderDate:     at,
	}
}

// confirmationFrom prefers the server's projection and falls back to the
// request for anything it left out.
func confirmationFrom(req *domain.OrderRequest, receipt *domain.OrderReceipt) *domain.OrderConfirmation {
	conf := &domain.OrderConfirmation{
		OrderID:       fmt.Sprintf("INV-%d", req.OrderDate.UnixMilli()),
		Date:          req.OrderDate,
		ShippingInfo:  req.ShippingInfo,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
		Total:         money.Format(req.TotalAmount),
	}
	if receipt == nil {
		return conf
	}
	if receipt.ID != "" {
		conf.OrderID = receipt.ID
	}
	if receipt.OrderDate != nil && !receipt.OrderDate.IsZero() {
		conf.Date = *receipt.OrderDate
	}
	if receipt.ShippingInfo != nil {
		conf.ShippingInfo = *receipt.ShippingInfo
	}
	if receipt.PaymentMethod != "" {
		conf.PaymentMethod = receipt.PaymentMethod
	}
	if len(receipt.Items) > 0 {
		conf.Items = receipt.Items
	}
	if receipt.TotalAmount != nil {
		conf.Total = money.Format(*receipt.TotalAmount)
	}
	return conf
}
