package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

// MockOrderService implements OrderService for testing
type MockOrderService struct {
	mu       sync.Mutex
	Receipt  *domain.OrderReceipt
	Err      error
	Requests []domain.OrderRequest
	Tokens   []string
	// Started, when set, receives a value once a call has begun.
	Started chan struct{}
	// Release, when set, blocks the call until closed.
	Release chan struct{}
}

func (m *MockOrderService) CreateOrder(_ context.Context, token string, req domain.OrderRequest) (*domain.OrderReceipt, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.Tokens = append(m.Tokens, token)
	started, release := m.Started, m.Release
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return m.Receipt, m.Err
}

func (m *MockOrderService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
