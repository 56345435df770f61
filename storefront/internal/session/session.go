package session

import (
	"sync"
	"time"

	"github.com/fjod/go_bookstore/storefront/internal/cart"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/checkout"
)

// Session is everything the storefront keeps in memory for one user.
type Session struct {
	UserID  string
	cart    *cart.MemoryStore
	browser *catalog.Browser

	mu       sync.Mutex
	checkout *checkout.Controller
	lastSeen time.Time
}

func (s *Session) Cart() *cart.MemoryStore {
	return s.cart
}

func (s *Session) Browser() *catalog.Browser {
	return s.browser
}

func (s *Session) Checkout() (*checkout.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout, s.checkout != nil
}

func (s *Session) replaceCheckout(c *checkout.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout != nil {
		s.checkout.Abandon()
	}
	s.checkout = c
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
