package session

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_bookstore/storefront/internal/cache"
	"github.com/fjod/go_bookstore/storefront/internal/catalog"
	"github.com/fjod/go_bookstore/storefront/internal/domain"
	"github.com/fjod/go_bookstore/storefront/internal/repository"
)

// MockRepository implements repository.CartRepository in memory
type MockRepository struct {
	mu       sync.Mutex
	carts    map[string]*domain.CartSnapshot
	GetCalls int
	Upserts  int
	GetErr   error
	GetDelay time.Duration

	upsertHook func()
}

func NewMockRepository() *MockRepository {
	return &MockRepository{carts: make(map[string]*domain.CartSnapshot)}
}

func (m *MockRepository) GetCart(_ context.Context, userID string) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	m.GetCalls++
	delay, getErr := m.GetDelay, m.GetErr
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if getErr != nil {
		return nil, getErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.Lines = append([]domain.CartLine{}, c.Lines...)
	return &cp, nil
}

// OnUpsert runs hook before each later upsert is stored.
func (m *MockRepository) OnUpsert(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertHook = hook
}

func (m *MockRepository) UpsertCart(_ context.Context, cart *domain.CartSnapshot) error {
	m.mu.Lock()
	hook := m.upsertHook
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserts++
	cp := *cart
	cp.Lines = append([]domain.CartLine{}, cart.Lines...)
	m.carts[cart.UserID] = &cp
	return nil
}

func (m *MockRepository) RemoveOrderedLines(_ context.Context, userID string, identities []string, placedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	ordered := map[string]bool{}
	for _, id := range identities {
		ordered[id] = true
	}
	kept := []domain.CartLine{}
	for _, l := range c.Lines {
		if ordered[l.Identity] && !l.AddedAt.After(placedAt) {
			continue
		}
		kept = append(kept, l)
	}
	c.Lines = kept
	return nil
}

func (m *MockRepository) Ping(context.Context) error { return nil }

func (m *MockRepository) Stored(userID string) (*domain.CartSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	return c, ok
}

// MockCache implements cache.CartCache in memory
type MockCache struct {
	mu      sync.Mutex
	entries map[string]*domain.CartSnapshot
	Deletes int
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string]*domain.CartSnapshot)}
}

func (m *MockCache) Get(_ context.Context, userID string) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *MockCache) Set(_ context.Context, userID string, cart *domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = cart
	return nil
}

func (m *MockCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	delete(m.entries, userID)
	return nil
}

func (m *MockCache) Ping(context.Context) error { return nil }

// MockCatalog implements CatalogClient
type MockCatalog struct {
	Volumes map[string]domain.CatalogItem
}

func (m *MockCatalog) Search(_ context.Context, q catalog.Query) (catalog.Page, error) {
	return catalog.Page{Query: q}, nil
}

func (m *MockCatalog) Volume(_ context.Context, id string) (domain.CatalogItem, error) {
	v, ok := m.Volumes[id]
	if !ok {
		return domain.CatalogItem{}, catalog.ErrVolumeNotFound
	}
	return v, nil
}

// MockOrders implements checkout.OrderService
type MockOrders struct {
	Receipt *domain.OrderReceipt
	Err     error
}

func (m *MockOrders) CreateOrder(context.Context, string, domain.OrderRequest) (*domain.OrderReceipt, error) {
	return m.Receipt, m.Err
}
