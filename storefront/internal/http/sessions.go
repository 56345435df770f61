package http

import (
	"context"

	"github.com/fjod/go_bookstore/storefront/internal/checkout"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
	"github.com/fjod/go_bookstore/storefront/internal/session"
)

// Sessions is implemented by session.Service.
type Sessions interface {
	Session(ctx context.Context, userID string) (*session.Session, error)
	AddToCart(ctx context.Context, userID string, item domain.CatalogItem) (domain.CartLine, error)
	BeginCheckout(ctx context.Context, userID string) (*checkout.Controller, error)
	Checkout(ctx context.Context, userID string) (*checkout.Controller, error)
	LeaveCheckout(ctx context.Context, userID string) error
}

var _ Sessions = (*session.Service)(nil)
