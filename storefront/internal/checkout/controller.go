// Package checkout implements the four step checkout flow of a storefront
// session: Shipping, Payment, Review and Confirmation.
package checkout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/storefront/internal/cart"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// OrderService creates orders on behalf of the user owning token.
type OrderService interface {
	CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.OrderReceipt, error)
}

type Controller struct {
	mu            sync.Mutex
	cart          cart.CartStore
	orders        OrderService
	now           func() time.Time
	submitTimeout time.Duration
	logger        *zap.Logger

	step       domain.CheckoutStep
	shipping   domain.ShippingInfo
	payment    domain.PaymentMethod
	result     *domain.OrderConfirmation
	submitting bool
	message    string
	abandoned  bool
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) { c.submitTimeout = d }
}

// NewController starts a fresh checkout at the Shipping step.
func NewController(store cart.CartStore, orders OrderService, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		cart:          store,
		orders:        orders,
		now:           time.Now,
		submitTimeout: 15 * time.Second,
		logger:        logger,
		step:          domain.StepShipping,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() domain.CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := c.cart.Lines()
	st := domain.CheckoutState{
		Step:          c.step,
		ShippingInfo:  c.shipping,
		PaymentMethod: c.payment,
		Total:         cart.Total(lines),
		CartEmpty:     len(lines) == 0 && !c.step.IsTerminal(),
		Submitting:    c.submitting,
		Message:       c.message,
	}
	if c.result != nil {
		res := *c.result
		st.OrderResult = &res
	}
	return st
}

// Abandon marks the checkout as left. A submission still on the wire
// completes but its result is discarded.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandoned = true
}

func (c *Controller) Abandoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abandoned
}

// guardLocked holds the checks shared by every mutating operation.
func (c *Controller) guardLocked() error {
	if c.abandoned {
		return ErrAbandoned
	}
	if c.submitting {
		return ErrSubmissionInFlight
	}
	return nil
}
