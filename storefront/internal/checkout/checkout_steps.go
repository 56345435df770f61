package checkout

import (
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// UpdateShipping replaces the shipping form. It is refused once the order
// is confirmed.
func (c *Controller) UpdateShipping(info domain.ShippingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(); err != nil {
		return err
	}
	if c.step.IsTerminal() {
		return &IllegalTransitionError{From: c.step, To: domain.StepShipping}
	}
	c.shipping = info
	c.message = ""
	return nil
}

// SelectPayment sets the payment method. An empty method unsets it.
func (c *Controller) SelectPayment(method domain.PaymentMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(); err != nil {
		return err
	}
	if c.step.IsTerminal() {
		return &IllegalTransitionError{From: c.step, To: domain.StepPayment}
	}
	if method != "" {
		if verr := ValidatePayment(method); verr != nil {
			c.message = verr.Message
			return verr
		}
	}
	c.payment = method
	c.message = ""
	return nil
}

// Next moves Shipping to Payment or Payment to Review when the current step
// validates. Review only advances through PlaceOrder.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(); err != nil {
		return err
	}
	if c.step == domain.StepReview || c.step.IsTerminal() {
		return &IllegalTransitionError{From: c.step, To: c.step + 1}
	}
	if len(c.cart.Lines()) == 0 {
		return ErrEmptyCart
	}

	var verr *ValidationError
	switch c.step {
	case domain.StepShipping:
		verr = ValidateShipping(c.shipping)
	case domain.StepPayment:
		verr = ValidatePayment(c.payment)
	}
	if verr != nil {
		c.message = verr.Message
		return verr
	}

	return c.moveLocked(c.step + 1)
}

func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(); err != nil {
		return err
	}
	return c.moveLocked(c.step - 1)
}

func (c *Controller) moveLocked(to domain.CheckoutStep) error {
	if !domain.CanTransitionTo(c.step, to) {
		return &IllegalTransitionError{From: c.step, To: to}
	}
	c.step = to
	c.message = ""
	return nil
}
