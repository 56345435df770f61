package domain

type CheckoutStep int

const (
	StepShipping CheckoutStep = iota + 1
	StepPayment
	StepReview
	StepConfirmation
)

func (s CheckoutStep) IsTerminal() bool {
	return s == StepConfirmation
}

func (s CheckoutStep) String() string {
	switch s {
	case StepShipping:
		return "SHIPPING"
	case StepPayment:
		return "PAYMENT"
	case StepReview:
		return "REVIEW"
	case StepConfirmation:
		return "CONFIRMATION"
	default:
		return "UNKNOWN"
	}
}

// CanTransitionTo allows one step forward, or one step back from Payment and
// Review. Nothing leaves Confirmation.
func CanTransitionTo(from, to CheckoutStep) bool {
	if from.IsTerminal() || from < StepShipping {
		return false
	}
	switch to {
	case from + 1:
		return true
	case from - 1:
		return from > StepShipping
	default:
		return false
	}
}
