package repository

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// CartRepository persists cart snapshots, one document per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	UpsertCart(ctx context.Context, cart *domain.CartSnapshot) error
	// RemoveOrderedLines pulls lines for the given identities added no later
	// than placedAt.
	RemoveOrderedLines(ctx context.Context, userID string, identities []string, placedAt time.Time) error
	Ping(ctx context.Context) error
}
