package checkout

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/storefront/internal/cart"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

type checkoutTestContext struct {
	store      *cart.MemoryStore
	orders     *MockOrderService
	controller *Controller
	lastErr    error
}

func (tc *checkoutTestContext) reset() {
	tc.store = cart.NewMemoryStore()
	tc.orders = &MockOrderService{Receipt: &domain.OrderReceipt{}}
	tc.controller = nil
	tc.lastErr = nil
}

func (tc *checkoutTestContext) anEmptyCart() error {
	tc.store.ClearCart()
	return nil
}

func (tc *checkoutTestContext) iAddPricedToTheCart(id, price string) error {
	tc.store.AddToCart(domain.CatalogItem{ID: id, VolumeInfo: domain.VolumeInfo{Title: "Book " + id}}, price, "USD")
	return nil
}

func (tc *checkoutTestContext) theOrdersServiceAcceptsOrdersAs(id string) error {
	tc.orders.Receipt = &domain.OrderReceipt{ID: id}
	tc.orders.Err = nil
	return nil
}

func (tc *checkoutTestContext) theOrdersServiceRejectsOrdersWith(msg string) error {
	tc.orders.Receipt = nil
	tc.orders.Err = &domain.BackendError{StatusCode: http.StatusBadRequest, Message: msg}
	return nil
}

func (tc *checkoutTestContext) iBeginCheckout() error {
	tc.controller = NewController(tc.store, tc.orders, zap.NewNop())
	return nil
}

func (tc *checkoutTestContext) iFillInShippingWithEmail(email string) error {
	info := validShipping()
	info.Email = email
	return tc.controller.UpdateShipping(info)
}

func (tc *checkoutTestContext) iContinue() error {
	tc.lastErr = tc.controller.Next()
	return nil
}

func (tc *checkoutTestContext) iSelectThePaymentMethod(method string) error {
	return tc.controller.SelectPayment(domain.PaymentMethod(method))
}

func (tc *checkoutTestContext) iPlaceTheOrder() error {
	_, tc.lastErr = tc.controller.PlaceOrder(context.Background(), "token")
	return nil
}

func (tc *checkoutTestContext) theCheckoutIsAtStep(step string) error {
	if got := tc.controller.State().Step.String(); got != step {
		return fmt.Errorf("expected step %s, got %s (last error: %v)", step, got, tc.lastErr)
	}
	return nil
}

func (tc *checkoutTestContext) theCheckoutMessageIs(msg string) error {
	if got := tc.controller.State().Message; got != msg {
		return fmt.Errorf("expected message %q, got %q", msg, got)
	}
	return nil
}

func (tc *checkoutTestContext) theOrderResultTotalIs(total string) error {
	res := tc.controller.State().OrderResult
	if res == nil {
		return fmt.Errorf("no order result")
	}
	if res.Total != total {
		return fmt.Errorf("expected order total %s, got %s", total, res.Total)
	}
	return nil
}

func (tc *checkoutTestContext) theCartIsEmpty() error {
	if n := len(tc.store.Lines()); n != 0 {
		return fmt.Errorf("expected empty cart, got %d lines", n)
	}
	return nil
}

func (tc *checkoutTestContext) theCartHasLines(n int) error {
	if got := len(tc.store.Lines()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (tc *checkoutTestContext) theCartTotalIs(total string) error {
	if got := tc.store.CalculateTotal(); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	return nil
}

func (tc *checkoutTestContext) theLineHasQuantityAndUnitPrice(id string, qty int, price string) error {
	for _, l := range tc.store.Lines() {
		if l.Identity != id {
			continue
		}
		if l.Quantity != qty || l.UnitPrice != price {
			return fmt.Errorf("line %s: expected %d x %s, got %d x %s", id, qty, price, l.Quantity, l.UnitPrice)
		}
		return nil
	}
	return fmt.Errorf("line %s not found", id)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^I add "([^"]*)" priced "([^"]*)" to the cart$`, tc.iAddPricedToTheCart)
	ctx.Step(`^the orders service accepts orders as "([^"]*)"$`, tc.theOrdersServiceAcceptsOrdersAs)
	ctx.Step(`^the orders service rejects orders with "([^"]*)"$`, tc.theOrdersServiceRejectsOrdersWith)
	ctx.Step(`^I begin checkout$`, tc.iBeginCheckout)

	// When steps
	ctx.Step(`^I fill in shipping with email "([^"]*)"$`, tc.iFillInShippingWithEmail)
	ctx.Step(`^I continue$`, tc.iContinue)
	ctx.Step(`^I select the "([^"]*)" payment method$`, tc.iSelectThePaymentMethod)
	ctx.Step(`^I place the order$`, tc.iPlaceTheOrder)

	// Then steps
	ctx.Step(`^the checkout is at step "([^"]*)"$`, tc.theCheckoutIsAtStep)
	ctx.Step(`^the checkout message is "([^"]*)"$`, tc.theCheckoutMessageIs)
	ctx.Step(`^the order result total is "([^"]*)"$`, tc.theOrderResultTotalIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart has (\d+) lines$`, tc.theCartHasLines)
	ctx.Step(`^the cart total is "([^"]*)"$`, tc.theCartTotalIs)
	ctx.Step(`^the line "([^"]*)" has quantity (\d+) and unit price "([^"]*)"$`, tc.theLineHasQuantityAndUnitPrice)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
