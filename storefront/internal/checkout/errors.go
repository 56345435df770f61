package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

const GenericSubmissionMessage = "There was an issue placing your order. Please try again."

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrAbandoned          = errors.New("checkout was left before the order completed")
	ErrIllegalTransition  = errors.New("illegal transition of checkout step")
)

// ValidationError blocks a forward move. Message is user facing.
type ValidationError struct {
	Step    domain.CheckoutStep
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type IllegalTransitionError struct {
	From domain.CheckoutStep
	To   domain.CheckoutStep
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// SubmissionError is a failed order creation. The checkout stays in Review.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return "Order Failed: " + e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
