package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, userID string, cart *domain.CartSnapshot) error
	Delete(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
