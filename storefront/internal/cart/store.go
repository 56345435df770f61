package cart

import (
	"time"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// CartStore is the set of operations the rendering layer and the checkout
// flow may invoke on a cart. Unknown identities are no-ops, never errors.
type CartStore interface {
	// AddToCart appends a line with quantity 1, or increments an existing
	// line for the same identity. The price of an existing line is kept.
	// Either way the cart is opened.
	AddToCart(item domain.CatalogItem, unitPrice, currency string)

	// RemoveFromCart deletes the line with the given identity.
	RemoveFromCart(identity string)

	// IncreaseQuantity adds one to the line's quantity.
	IncreaseQuantity(identity string)

	// DecreaseQuantity subtracts one, removing the line when it reaches zero.
	DecreaseQuantity(identity string)

	// ClearCart removes every line. The open flag is left as it is.
	ClearCart()

	OpenCart()
	CloseCart()

	// CalculateTotal sums unitPrice * quantity over all lines, formatted to
	// two decimals. Unparseable prices count as zero.
	CalculateTotal() string

	// Lines returns a copy of the lines in insertion order.
	Lines() []domain.CartLine

	// State returns a copy of the lines and the open flag.
	State() domain.CartState

	// Count is the sum of quantities shown on the cart badge.
	Count() int
}

// Clock is overridable for tests.
type Clock func() time.Time
